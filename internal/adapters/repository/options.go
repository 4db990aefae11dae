package repository

// Option applies a configuration option to the Repository.
type Option func(*Repository)

// WithOnChange sets a callback invoked with the record count after every
// Replace. It defaults to updating the records gauge.
func WithOnChange(fn func(n int)) Option {
	return func(r *Repository) {
		r.onChange = fn
	}
}
