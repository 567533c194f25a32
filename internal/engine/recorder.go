package engine

import (
	"context"

	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/store"
)

// Recorder journals runs. *store.Store implements it.
type Recorder interface {
	BeginRun(ctx context.Context, r store.Run) error
	AppendStage(ctx context.Context, e store.StageEvent) error
	AppendObject(ctx context.Context, e store.ObjectEvent) error
	FinishRun(ctx context.Context, id, status, code, message string, ticks int64) error
	WriteResult(ctx context.Context, r store.Result) error
}

var _ Recorder = (*store.Store)(nil)

// objectChange is a host load or unload waiting to be journaled.
type objectChange struct {
	action     string
	identifier string
	objectType objects.ObjectType
	slot       int
}

// recordingObjects notes every load and unload that reaches the host.
// Classification probes bypass it and are not journaled.
type recordingObjects struct {
	host.ObjectManager
	changes []objectChange
}

func (r *recordingObjects) Load(identifier string, index int) (objects.LoadedObject, bool) {
	obj, ok := r.ObjectManager.Load(identifier, index)
	if ok {
		r.changes = append(r.changes, objectChange{store.ActionLoad, identifier, obj.Type, obj.Index})
	}
	return obj, ok
}

func (r *recordingObjects) Unload(identifier string) {
	for _, t := range objects.ObjectTypes {
		for _, obj := range r.ObjectManager.Loaded(t) {
			if obj.Identifier == identifier {
				r.changes = append(r.changes, objectChange{store.ActionUnload, identifier, t, obj.Index})
			}
		}
	}
	r.ObjectManager.Unload(identifier)
}

func (r *recordingObjects) UnloadAt(t objects.ObjectType, index int) {
	if obj, ok := r.ObjectManager.Object(t, index); ok {
		r.changes = append(r.changes, objectChange{store.ActionUnload, obj.Identifier, t, index})
	}
	r.ObjectManager.UnloadAt(t, index)
}

// drain returns and forgets the changes noted since the last call.
func (r *recordingObjects) drain() []objectChange {
	out := r.changes
	r.changes = nil
	return out
}
