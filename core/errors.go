package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 训练错误：DATA_INSUFFICIENT
//   - 查询错误：NO_SIGNAL
//   - 工件错误：ARTIFACT_MISSING, ARTIFACT_CORRUPT
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NO_SIGNAL"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "matrix", "artifact"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 领域错误代码
	ErrorCodeDataInsufficient = "DATA_INSUFFICIENT" // 过滤后数据不足以训练
	ErrorCodeNoSignal         = "NO_SIGNAL"         // 用户没有可用于推荐的信号
	ErrorCodeArtifactMissing  = "ARTIFACT_MISSING"  // 工件不存在
	ErrorCodeArtifactCorrupt  = "ARTIFACT_CORRUPT"  // 工件损坏/无法反序列化
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleDataset   = "dataset"   // 交互抽取模块
	ModuleMatrix    = "matrix"    // 评分矩阵模块
	ModuleArtifact  = "artifact"  // 工件模块
	ModuleRecommend = "recommend" // 推荐聚合模块
)

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotSupported
	}
	return false
}

// IsDataInsufficient 检查错误是否为 DATA_INSUFFICIENT。
// 训练侧硬失败：过滤后矩阵为空时返回，不允许静默产出坏模型。
func IsDataInsufficient(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeDataInsufficient
	}
	return false
}

// IsNoSignal 检查错误是否为 NO_SIGNAL。
// 与"有信号但没有好的候选"（空列表 + nil error）区分开，
// 展示层据此渲染"添加书籍以获取推荐"的空态。
func IsNoSignal(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNoSignal
	}
	return false
}

// IsArtifactMissing 检查错误是否为 ARTIFACT_MISSING
func IsArtifactMissing(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeArtifactMissing
	}
	return false
}

// IsArtifactCorrupt 检查错误是否为 ARTIFACT_CORRUPT
func IsArtifactCorrupt(err error) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeArtifactCorrupt
	}
	return false
}
