package context

type Key string

const (
	Params Key = "params"
)
