package relay

// Funcs adapts plain functions to a Listener. Nil fields are skipped;
// a nil DataProcessed continues.
type Funcs struct {
	FileProcessed    func(id int, name string)
	PasswordRequired func()
	DataProcessed    func(n int) int
}

var _ Listener = Funcs{}

func (f Funcs) OnFileProcessed(id int, name string) {
	if f.FileProcessed != nil {
		f.FileProcessed(id, name)
	}
}

func (f Funcs) OnPasswordRequired() {
	if f.PasswordRequired != nil {
		f.PasswordRequired()
	}
}

func (f Funcs) OnDataProcessed(n int) int {
	if f.DataProcessed != nil {
		return f.DataProcessed(n)
	}
	return Continue
}
