package templatex

// Context is the key/value data handed to a template.
type Context map[string]any

// Insert sets key and returns the context for chaining.
func (c Context) Insert(key string, value any) Context {
	c[key] = value
	return c
}

// Clone returns a shallow copy so callers can add keys without leaking them to siblings.
func (c Context) Clone() Context {
	out := make(Context, len(c)+4)
	for k, v := range c {
		out[k] = v
	}
	return out
}
