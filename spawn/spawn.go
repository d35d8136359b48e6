// Package spawn manages pools of entities instantiated from prefabs.
package spawn

import (
	"github.com/zephyrtronium/voxe/geometry"
)

// Parent is a scene node that objects can be attached to.
type Parent interface {
	// Attach makes child a child of the parent. A child has at most one
	// parent; attaching it elsewhere detaches it from the previous one.
	Attach(child Object)
	// Detach removes child from the parent if it is attached.
	Detach(child Object)
}

// Object is an entity in the scene.
type Object interface {
	SetName(name string)
	SetActive(active bool)
	// Body returns the object's physics body, or nil if it has none.
	Body() Body
}

// Body is the physics state of an object.
type Body interface {
	SetVelocity(v geometry.Vector3)
}

// Prefab is a template from which objects are instantiated.
type Prefab interface {
	Name() string
	Instantiate() (Object, error)
}

// DefaultInitialSize is the number of instances created for an entry that
// does not specify one.
const DefaultInitialSize = 128

// Entry configures one pool of a [Provider].
type Entry struct {
	// Name is the name of the pool.
	Name string
	// Prefab is the template for objects in the pool.
	// Entries with no prefab are skipped.
	Prefab Prefab
	// InitialSize is the number of objects to create up front.
	// Zero means DefaultInitialSize. Use a negative value for none.
	InitialSize int
}
