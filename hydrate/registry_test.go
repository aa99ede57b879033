//nolint:exhaustruct
package hydrate_test

import (
	"reflect"
	"sync"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/pasqal-io/gohydrate/hydrate"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

func TestRegisterRejectsNonPointers(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	err := registry.Register("CircleShape", CircleShape{}, nil)
	assert.ErrorContains(t, err, "expected a pointer to a struct")

	err = registry.Register("Number", new(int), nil)
	assert.ErrorContains(t, err, "expected a pointer to a struct")

	err = registry.Register("", &CircleShape{}, nil)
	assert.ErrorContains(t, err, "without a name")
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	assert.NilError(t, registry.Register("shapes.CircleShape", &CircleShape{}, nil))
	err := registry.Register("shapes.CircleShape", &SquareShape{}, nil)
	assert.ErrorContains(t, err, "already used")
}

func TestRegisterAliasKeepsFirstName(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	assert.NilError(t, registry.Register("shapes.CircleShape", &CircleShape{}, nil))
	assert.NilError(t, registry.Register("Disc", &CircleShape{}, nil))

	alias, ok := registry.Lookup("Disc")
	assert.Assert(t, ok)
	assert.Equal(t, alias.Name, "Disc")
	assert.Equal(t, alias.Namespace, "")

	byType, ok := registry.LookupType(reflect.TypeFor[*CircleShape]())
	assert.Assert(t, ok)
	assert.Equal(t, byType.Name, "shapes.CircleShape")
}

func TestRegisterType(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	assert.NilError(t, hydrate.RegisterType[SquareShape](registry, "geometry.shapes.SquareShape"))
	info, ok := registry.Lookup("geometry.shapes.SquareShape")
	assert.Assert(t, ok)
	assert.Equal(t, info.Namespace, "geometry.shapes")
	assert.Assert(t, info.IsConstructible())
	assert.Assert(t, !info.IsPolymorphic())
}

func TestCustomSeparator(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.RegistryOptions{Separator: "\\"})
	assert.NilError(t, registry.Register("App\\Shapes\\CircleShape", &CircleShape{}, nil))
	info, ok := registry.Lookup("App\\Shapes\\CircleShape")
	assert.Assert(t, ok)
	assert.Equal(t, info.Namespace, "App\\Shapes")
}

func TestRegisterBase(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	err := registry.RegisterBase("Number", reflect.TypeFor[int](), nil)
	assert.ErrorContains(t, err, "expected an interface or a pointer to a struct")

	err = registry.RegisterBase("Missing", nil, nil)
	assert.ErrorContains(t, err, "missing type")

	assert.NilError(t, registry.RegisterBase("shapes.Shape", reflect.TypeFor[Shape](), nil))
	info, ok := registry.Lookup("shapes.Shape")
	assert.Assert(t, ok)
	assert.Assert(t, !info.IsConstructible())
	assert.Assert(t, !info.IsPolymorphic())
}

func TestPrototypeProvidesDescriptor(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	assert.NilError(t, registry.Register("zoo.Animal", &Animal{}, nil))
	assert.NilError(t, registry.Register("zoo.Cat", &Cat{}, nil))

	info, ok := registry.Lookup("zoo.Animal")
	assert.Assert(t, ok)
	assert.Assert(t, info.IsPolymorphic())
	assert.Equal(t, info.Descriptor().Field, "species")

	resolved, err := registry.ResolveName("zoo.Animal", shared.RecordOf("species", "cat"))
	assert.NilError(t, err)
	assert.Equal(t, resolved.Name, "zoo.Cat")
}

func TestSetDescriptor(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	err := registry.SetDescriptor("shapes.Shape", hydrate.Descriptor{Field: "kind"})
	assert.ErrorContains(t, err, "no such type")

	assert.NilError(t, registry.RegisterBase("shapes.Shape", reflect.TypeFor[Shape](), nil))
	assert.NilError(t, registry.SetDescriptor("shapes.Shape", hydrate.Descriptor{Field: "kind", Suffix: "Shape"}))
	info, _ := registry.Lookup("shapes.Shape")
	assert.Assert(t, info.IsPolymorphic())

	// The registry keeps its own copy.
	descriptor := info.Descriptor()
	descriptor.Field = "changed"
	assert.Equal(t, info.Descriptor().Field, "kind")
}

func TestLookupTypeFindsUnregisteredStructs(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	info, ok := registry.LookupType(reflect.TypeFor[*Note]())
	assert.Assert(t, ok)
	assert.Equal(t, info.Name, "Note")
	assert.Assert(t, info.IsConstructible())

	again, _ := registry.LookupType(reflect.TypeFor[*Note]())
	assert.Equal(t, info, again)

	_, ok = registry.LookupType(reflect.TypeFor[Shape]())
	assert.Assert(t, !ok)

	_, ok = registry.LookupType(reflect.TypeFor[string]())
	assert.Assert(t, !ok)
}

func TestUninitializedRegistryPanics(t *testing.T) {
	defer func() {
		recovered := recover()
		assert.Equal(t, recovered, "struct was not initialized, use its constructor")
	}()
	registry := new(hydrate.Registry)
	_, _ = registry.Lookup("Drawing")
	t.Fatal("we should have panicked")
}

func TestNames(t *testing.T) {
	registry := makeRegistry()
	assert.Equal(t, len(registry.Names()), 6)
}

func TestDescriptorConcurrentWithSetDescriptor(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	assert.NilError(t, hydrate.RegisterType[Owner](registry, "Owner"))
	info, ok := registry.Lookup("Owner")
	assert.Assert(t, ok)

	var group sync.WaitGroup
	group.Add(2)
	go func() {
		defer group.Done()
		for i := range 100 {
			_ = registry.SetDescriptor("Owner", hydrate.Descriptor{Field: "kind", Suffix: string(rune('a' + i%26))})
		}
	}()
	go func() {
		defer group.Done()
		for range 100 {
			if descriptor := info.Descriptor(); descriptor != nil {
				assert.Check(t, descriptor.Field == "kind")
			}
		}
	}()
	group.Wait()

	assert.Assert(t, info.IsPolymorphic())
	assert.Equal(t, info.Descriptor().Suffix, "v")
}
