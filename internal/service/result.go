package service

// Kind 区分结果类别；KindOK 以外的取值中 Unauthenticated/NotFound 表示“缺失”，其余为失败
type Kind string

const (
	KindOK              Kind = ""
	KindUnauthenticated Kind = "unauthenticated"
	KindNotFound        Kind = "not_found"
	KindSelfFollow      Kind = "self_follow"
	KindInvalid         Kind = "invalid"
	KindDataLayer       Kind = "data_layer"
)

// Result 服务边界的返回值，调用方按 Kind 分支而不是解析日志
type Result[T any] struct {
	Data    T
	Kind    Kind
	Message string
	Err     error
}

func Ok[T any](v T) Result[T] { return Result[T]{Data: v} }

func Fail[T any](kind Kind, message string, err error) Result[T] {
	return Result[T]{Kind: kind, Message: message, Err: err}
}

// Recast 以新的数据类型转发非 OK 结果
func Recast[U, T any](r Result[T]) Result[U] {
	return Result[U]{Kind: r.Kind, Message: r.Message, Err: r.Err}
}

func (r Result[T]) OK() bool { return r.Kind == KindOK }

func (r Result[T]) Absent() bool {
	return r.Kind == KindUnauthenticated || r.Kind == KindNotFound
}

func (r Result[T]) Failed() bool { return !r.OK() && !r.Absent() }
