package muscle

import "fmt"

// ConfigurationError reports an internally inconsistent knowledge base table.
// It indicates a broken build, not bad input, and must stop the process at
// startup.
type ConfigurationError struct {
	Table  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("knowledge base %s: %s", e.Table, e.Detail)
}

func configError(table, detail string) error {
	return &ConfigurationError{Table: table, Detail: detail}
}
