package logging

import "log/slog"

func Conn(id string) slog.Attr {
	return slog.String("connId", id)
}

func Participant(name string) slog.Attr {
	return slog.String("name", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
