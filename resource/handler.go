package resource

// Next runs the rest of the handler chain. It returns nil past the last
// handler.
type Next func() error

// Handler is one step of an operation's chain. A handler does its pre-work,
// calls next to run the handlers after it and then does its post-work.
// Handlers that do not call next end the chain.
type Handler interface {
	Handle(c *Context, next Next) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(c *Context, next Next) error

// Handle calls f.
func (f HandlerFunc) Handle(c *Context, next Next) error {
	return f(c, next)
}

type builtin struct{}

func (builtin) Handle(_ *Context, next Next) error {
	return next()
}

// Builtin stands for the default handler of an operation inside a Custom
// list. It is replaced when the resource is built.
var Builtin Handler = builtin{}

func isBuiltin(h Handler) bool {
	_, ok := h.(builtin)
	return ok
}

// run executes handlers in order, each receiving a Next for the remainder.
func run(c *Context, handlers []Handler) error {
	var call func(i int) error
	call = func(i int) error {
		if i >= len(handlers) {
			return nil
		}
		return handlers[i].Handle(c, func() error { return call(i + 1) })
	}
	return call(0)
}
