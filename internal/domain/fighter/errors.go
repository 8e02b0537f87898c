package fighter

// ErrUnknownFighter names the fighter that could not be found.
type ErrUnknownFighter string

func (e ErrUnknownFighter) Error() string { return "fighter not found: " + string(e) }
