package registry

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/c-oreills/ringoffire/logging"
)

// Registry binds participant names to connection handles. Both directions
// are updated together so a name maps to at most one handle and a handle
// carries at most one name.
//
// Registry is not safe for concurrent use; the dispatcher serializes access.
type Registry struct {
	byName   map[string]string
	byHandle map[string]string
}

func New() *Registry {
	return &Registry{
		byName:   make(map[string]string),
		byHandle: make(map[string]string),
	}
}

// Register extracts the participant name from a query-string payload and
// binds it to handle. A leading "?" is tolerated. Without a usable name the
// handle itself is used.
func (r *Registry) Register(handle, rawQuery string) string {
	name := ParseName(rawQuery)
	if name == "" {
		name = handle
	}
	r.Bind(name, handle)
	return name
}

// Bind upserts name -> handle. A previous handle for name and a previous name
// for handle are both dropped.
func (r *Registry) Bind(name, handle string) {
	if old, ok := r.byName[name]; ok && old != handle {
		delete(r.byHandle, old)
		slog.Info("name rebound", logging.Participant(name), slog.String("previous", old), logging.Conn(handle))
	}
	if old, ok := r.byHandle[handle]; ok && old != name {
		delete(r.byName, old)
		slog.Info("participant renamed", logging.Conn(handle), slog.String("previous", old), logging.Participant(name))
	}
	r.byName[name] = handle
	r.byHandle[handle] = name
}

func (r *Registry) ResolveName(handle string) (string, bool) {
	name, ok := r.byHandle[handle]
	return name, ok
}

// Handle returns the connection currently bound to name.
func (r *Registry) Handle(name string) (string, bool) {
	h, ok := r.byName[name]
	return h, ok
}

// OtherHandles lists every bound handle except exclude.
func (r *Registry) OtherHandles(exclude string) []string {
	out := make([]string, 0, len(r.byHandle))
	for h := range r.byHandle {
		if h != exclude {
			out = append(out, h)
		}
	}
	return out
}

// Deregister drops the binding for handle and returns the name it carried.
func (r *Registry) Deregister(handle string) (string, bool) {
	name, ok := r.byHandle[handle]
	if !ok {
		return "", false
	}
	delete(r.byHandle, handle)
	delete(r.byName, name)
	return name, true
}

func (r *Registry) Len() int {
	return len(r.byName)
}

// ParseName returns the first non-empty "name" value of a query-string
// payload, or "" when there is none. Malformed pairs are ignored.
func ParseName(rawQuery string) string {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(rawQuery)
	for _, v := range values["name"] {
		if v != "" {
			return v
		}
	}
	return ""
}
