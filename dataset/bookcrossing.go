// Package dataset 负责交互信号的抽取：外部批量评分数据集 + 应用侧书架/日记记录，
// 统一成长表形态的 (用户, 物品, 评分) 交互记录。
//
// 抽取阶段对脏数据的态度：逐行恢复。解析失败、字段缺失的行直接跳过，
// 绝不让单行坏数据中断整个训练；下游只看到干净的长表。
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/rushteam/bookrec/core"
)

// LoadOption 配置 CSV 加载行为。
type LoadOption func(*loadOptions)

type loadOptions struct {
	utf8      bool
	separator rune
}

// WithUTF8 按 UTF-8 读取文件。默认按 Latin-1（Book-Crossing 原始编码）。
func WithUTF8() LoadOption {
	return func(o *loadOptions) { o.utf8 = true }
}

// WithSeparator 覆盖字段分隔符，默认 ';'。
func WithSeparator(sep rune) LoadOption {
	return func(o *loadOptions) { o.separator = sep }
}

// 外部数据集的列名
const (
	colISBN   = "ISBN"
	colTitle  = "Book-Title"
	colAuthor = "Book-Author"
	colUserID = "User-ID"
	colRating = "Book-Rating"
)

// LoadBooks 读取书目 CSV（ISBN;Book-Title;Book-Author;...）。
// 规则：字段为空的行丢弃；同一 ISBN 保留首次出现；坏行跳过，不中断。
// 返回 ISBN -> 元数据表。
func LoadBooks(path string, opts ...LoadOption) (map[string]core.BookMeta, error) {
	books := make(map[string]core.BookMeta)
	err := readCSV(path, []string{colISBN, colTitle, colAuthor}, opts, func(fields map[string]string) {
		isbn := strings.TrimSpace(fields[colISBN])
		title := strings.TrimSpace(fields[colTitle])
		author := strings.TrimSpace(fields[colAuthor])
		if isbn == "" || title == "" || author == "" {
			return
		}
		if _, ok := books[isbn]; ok {
			return
		}
		books[isbn] = core.BookMeta{Title: title, Author: author}
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// MergeBooks 把补充书目表（如西语数据集）并入基础表，同一 ISBN 基础表优先。
func MergeBooks(base, extra map[string]core.BookMeta) map[string]core.BookMeta {
	out := make(map[string]core.BookMeta, len(base)+len(extra))
	for isbn, bm := range base {
		out[isbn] = bm
	}
	for isbn, bm := range extra {
		if _, ok := out[isbn]; !ok {
			out[isbn] = bm
		}
	}
	return out
}

// LoadRatings 读取外部评分 CSV（User-ID;ISBN;Book-Rating）。
// 规则：评分必须大于 0（零分视为"无信号"丢弃）；缺 ISBN / 解析失败的行跳过。
func LoadRatings(path string, opts ...LoadOption) ([]core.Interaction, error) {
	var out []core.Interaction
	err := readCSV(path, []string{colUserID, colISBN, colRating}, opts, func(fields map[string]string) {
		userID := strings.TrimSpace(fields[colUserID])
		isbn := strings.TrimSpace(fields[colISBN])
		if userID == "" || isbn == "" {
			return
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(fields[colRating]), 64)
		if err != nil || rating <= 0 {
			return
		}
		out = append(out, core.Interaction{
			UserID:     userID,
			ItemID:     isbn,
			Rating:     rating,
			Provenance: core.ProvenanceExternal,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readCSV 按表头定位列，逐行回调。表头缺少必需列是配置错误，直接失败；
// 数据行的任何问题只跳过该行。
func readCSV(path string, required []string, opts []LoadOption, row func(map[string]string)) error {
	o := loadOptions{separator: ';'}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	var reader io.Reader = f
	if !o.utf8 {
		reader = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}

	cr := csv.NewReader(reader)
	cr.Comma = o.separator
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("dataset: read header of %s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("dataset: %s: missing column %q", path, name)
		}
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 坏行跳过（对应 pandas on_bad_lines='skip' 的语义）
			continue
		}
		fields := make(map[string]string, len(required))
		ok := true
		for _, name := range required {
			idx := cols[name]
			if idx >= len(record) {
				ok = false
				break
			}
			fields[name] = record[idx]
		}
		if !ok {
			continue
		}
		row(fields)
	}
	return nil
}
