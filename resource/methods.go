package resource

// Operation names a generated route group.
type Operation string

const (
	OpFind     Operation = "find"
	OpFindByID Operation = "findById"
	OpCreate   Operation = "create"
	OpSave     Operation = "save"
	OpRemove   Operation = "remove"
)

// Method configures one operation. The zero value disables it.
type Method struct {
	handlers []Handler
}

// Default enables an operation with its built-in handler.
func Default() Method {
	return Method{handlers: []Handler{Builtin}}
}

// Custom enables an operation with the given handlers. Builtin may appear in
// the list to run the default handler at that position. Nil handlers are
// skipped and an empty list leaves the operation disabled.
func Custom(handlers ...Handler) Method {
	m := Method{}
	for _, h := range handlers {
		if h != nil {
			m.handlers = append(m.handlers, h)
		}
	}
	return m
}

// Enabled reports whether the operation gets a route.
func (m Method) Enabled() bool {
	return len(m.handlers) > 0
}

func (m Method) resolve(def Handler) []Handler {
	out := make([]Handler, len(m.handlers))
	for i, h := range m.handlers {
		if isBuiltin(h) {
			h = def
		}
		out[i] = h
	}
	return out
}

// Methods is the method table of a resource.
type Methods struct {
	Find     Method
	FindByID Method
	Create   Method
	Save     Method
	Remove   Method
}

// AllMethods enables every operation with its default handler.
func AllMethods() Methods {
	return Methods{
		Find:     Default(),
		FindByID: Default(),
		Create:   Default(),
		Save:     Default(),
		Remove:   Default(),
	}
}

// Get returns the method configured for op.
func (m Methods) Get(op Operation) Method {
	switch op {
	case OpFind:
		return m.Find
	case OpFindByID:
		return m.FindByID
	case OpCreate:
		return m.Create
	case OpSave:
		return m.Save
	case OpRemove:
		return m.Remove
	}
	return Method{}
}
