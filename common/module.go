package common

type Module string

const (
	ModuleTicketing Module = "ticketing"
)

func (m Module) String() string {
	return string(m)
}
