// bookrec-train 是离线批量训练命令：读取外部数据集和应用侧书架记录，
// 训练物品相似度索引并发布新的工件版本。
//
// 用法：
//
//	bookrec-train -config train.yaml
package main

import (
	"context"
	"flag"
	"log"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/dataset"
	"github.com/rushteam/bookrec/store"
	"github.com/rushteam/bookrec/train"
)

func main() {
	configPath := flag.String("config", "train.yaml", "训练配置文件路径")
	flag.Parse()

	cfg, err := train.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	trainer := &train.Trainer{Config: cfg}

	// 应用侧记录源（可选）
	switch cfg.App.Store {
	case "":
		// 只用外部数据集训练
	case "redis":
		kv, err := store.NewRedisStore(cfg.App.RedisAddr, cfg.App.RedisDB)
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer kv.Close()
		trainer.Library = dataset.NewStoreLibrarySource(kv, cfg.App.KeyPrefix)
		trainer.Stats = kv
	case "memory":
		// 开发/演示：空的内存存储，等价于只用外部数据集
		kv := store.NewMemoryStore()
		defer kv.Close()
		trainer.Library = dataset.NewStoreLibrarySource(kv, cfg.App.KeyPrefix)
		trainer.Stats = kv
	default:
		log.Fatalf("unknown app store %q", cfg.App.Store)
	}

	res, err := trainer.Run(context.Background())
	if err != nil {
		if core.IsDataInsufficient(err) {
			log.Fatalf("not enough data after filtering, model not published: %v", err)
		}
		log.Fatalf("training failed: %v", err)
	}

	log.Printf("published %s: %d interactions, %d items x %d users",
		res.Version, res.Interactions, res.Items, res.Users)
}
