package common

type Module string

const (
	ModuleSeries Module = "series"
)

func (m Module) String() string {
	return string(m)
}
