package core

// Provenance 标记一条交互记录的来源，用于观测与调试。
type Provenance string

const (
	// ProvenanceExternal 来自外部批量评分数据集（如 Book-Crossing）
	ProvenanceExternal Provenance = "external_dataset"
	// ProvenanceJournal 来自应用内读书日记的显式评分
	ProvenanceJournal Provenance = "explicit_journal"
	// ProvenanceState 由阅读状态推断出的隐式评分
	ProvenanceState Provenance = "inferred_from_state"
)

// Interaction 是长表形态的一条 (用户, 物品, 评分) 交互记录。
// 训练前保证：同一 (UserID, ItemID) 至多保留一条；Rating 恒大于 0
// （零分/负分在抽取阶段即视为"无信号"丢弃）。
type Interaction struct {
	UserID     string
	ItemID     string // ISBN
	Rating     float64
	Provenance Provenance
}

// ReadingState 是应用侧一本书的阅读状态。
type ReadingState string

const (
	StatePending    ReadingState = "pending"
	StateStarted    ReadingState = "started"
	StateInProgress ReadingState = "in_progress"
	StateFinished   ReadingState = "finished"
	StateAbandoned  ReadingState = "abandoned"
)

// LibraryRecord 是应用侧一条个人书架记录：ISBN + 阅读状态 + 可选的显式评分。
// Rating 为 0–5 的日记评分，0 表示未评分（此时按状态推断隐式评分）。
type LibraryRecord struct {
	ISBN   string       `json:"isbn"`
	State  ReadingState `json:"state"`
	Rating float64      `json:"rating"`
}
