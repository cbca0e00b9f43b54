package command

import "minikv/internal/resp"

// Unknown — команда, которую сервер не знает.
type Unknown struct {
	name string
}

func (u *Unknown) Name() string { return u.name }

func (u *Unknown) Apply(Store) resp.Frame {
	return resp.Error("ERR unknown command '" + u.name + "'")
}

func (u *Unknown) Frame() resp.Frame {
	return resp.BulkArray(u.name)
}
