package loader

import (
	"github.com/roach88/osr/internal/objects"
)

// ApplyWorldAssociations treats every object the world references as
// freshly loaded, so its exclusions and companions take effect before any
// new object is chosen. It returns how many objects were handled.
func (l *Loader) ApplyWorldAssociations() (int, error) {
	handled := 0
	for _, t := range objects.ObjectTypes {
		for _, index := range l.alloc.Present(t) {
			obj, ok := l.objects.Object(t, index)
			if !ok {
				continue
			}
			if err := l.HandleLoaded(obj.Identifier, true); err != nil {
				return handled, err
			}
			handled++
		}
	}
	return handled, nil
}

// UnloadUnused unloads every classified object that is neither forbidden
// nor referenced by the world. Objects of a type for which keep reports
// true stay loaded whatever their state; keep may be nil.
//
// It returns the identifiers unloaded and the identifiers left loaded.
// The pools are not told about the latter.
func (l *Loader) UnloadUnused(keep func(objects.ObjectType) bool) (unloaded, inUse []string) {
	for _, t := range objects.ObjectTypes {
		kept := keep != nil && keep(t)
		for _, obj := range l.objects.Loaded(t) {
			d, classified := l.typeOf(obj.Identifier)
			if kept || !classified || l.alloc.IsForbidden(t, obj.Index) || l.alloc.IsPresent(t, obj.Index) {
				l.logger.Debug("object is in use and stays loaded", "identifier", obj.Identifier)
				inUse = append(inUse, obj.Identifier)
				continue
			}
			l.logger.Debug("unloading unused object", "identifier", obj.Identifier,
				"type", t.String(), "index", obj.Index, "pool", d.String())
			l.Unload(obj)
			unloaded = append(unloaded, obj.Identifier)
		}
	}
	return unloaded, inUse
}
