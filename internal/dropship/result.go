package dropship

// Result 供应商调用结果，要么成功携带数据，要么失败携带供应商返回的信息
type Result[T any] struct {
	value   T
	message string
	ok      bool
}

// Success 构造成功结果
func Success[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Failure 构造失败结果
func Failure[T any](message string) Result[T] {
	if message == "" {
		message = "provider request failed"
	}
	return Result[T]{message: message}
}

// Ok 是否成功
func (r Result[T]) Ok() bool {
	return r.ok
}

// Value 成功时的数据，失败时为零值
func (r Result[T]) Value() T {
	return r.value
}

// Message 失败信息，成功时为空
func (r Result[T]) Message() string {
	if r.ok {
		return ""
	}
	return r.message
}
