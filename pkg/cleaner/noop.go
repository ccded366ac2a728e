package cleaner

// NoopCleaner passes content through unchanged.
type NoopCleaner struct{}

// NewNoop creates a no-op cleaner.
func NewNoop() *NoopCleaner {
	return &NoopCleaner{}
}

// Clean returns the input unchanged.
func (c *NoopCleaner) Clean(content string) (string, error) {
	return content, nil
}

// Name returns the cleaner type.
func (c *NoopCleaner) Name() string {
	return NameNoop
}
