//nolint:exhaustruct
package hydrate_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"gotest.tools/v3/assert"

	"github.com/pasqal-io/gohydrate/assertions/testutils"
	"github.com/pasqal-io/gohydrate/hydrate"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
	"github.com/pasqal-io/gohydrate/validation"
)

const ownerID = "5f2b7a3c-6a1e-4b7e-9f4c-2d0c8e1a9b33"

func makeHydrator(options hydrate.Options) *hydrate.Hydrator {
	return hydrate.New(makeRegistry(), options)
}

func TestLoadCircleInDrawing(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	drawing := &Drawing{}
	err := h.Load(drawing, testutils.Record(t, `{"name": "sketch", "shapes": [{"kind": "circle", "radius": 5}]}`))
	assert.NilError(t, err)

	assert.Equal(t, drawing.name, "sketch")
	assert.Equal(t, len(drawing.shapes), 1)
	circle, ok := drawing.shapes[0].(*CircleShape)
	assert.Assert(t, ok, "expected a circle, got %T", drawing.shapes[0])
	assert.Equal(t, circle.radius, 5.0)
}

func TestLoadNestedMonomorphic(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	drawing := &Drawing{}
	err := h.Load(drawing, testutils.Record(t, `{"owner": {"id": "`+ownerID+`", "name": "Ada"}, "note": {"text": "draft"}}`))
	assert.NilError(t, err)

	assert.Equal(t, drawing.owner.ID, uuid.MustParse(ownerID))
	assert.Equal(t, drawing.owner.Name, "Ada")
	// `Note` was never registered.
	assert.Equal(t, drawing.note.text, "draft")
}

func TestLoadSkipsNull(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	drawing := &Drawing{name: "sketch", shapes: []Shape{&SquareShape{side: 1}}}
	err := h.Load(drawing, testutils.Record(t, `{"name": null, "shapes": null}`))
	assert.NilError(t, err)
	assert.Equal(t, drawing.name, "sketch")
	assert.Equal(t, len(drawing.shapes), 1)
}

func TestUpdateAppliesNull(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	drawing := &Drawing{name: "sketch", shapes: []Shape{&SquareShape{side: 1}}, owner: &Owner{Name: "Ada"}}
	err := h.Update(drawing, testutils.Record(t, `{"name": null, "owner": null, "shapes": null}`), hydrate.KeepCollections)
	assert.NilError(t, err)
	assert.Equal(t, drawing.name, "")
	assert.Assert(t, drawing.owner == nil)
	assert.Assert(t, drawing.shapes == nil)
}

func TestLoadReplacesCollections(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	drawing := &Drawing{shapes: []Shape{&SquareShape{side: 1}}}
	err := h.Load(drawing, testutils.Record(t, `{"shapes": [{"kind": "circle", "radius": 1}, {"kind": "square", "side": 2}]}`))
	assert.NilError(t, err)
	assert.Equal(t, len(drawing.shapes), 2)
	assert.Equal(t, drawing.shapes[1].Area(), 4.0)
}

func TestUpdateCollections(t *testing.T) {
	payload := `{"shapes": [{"kind": "square", "side": 2}]}`
	for _, example := range []struct {
		name     string
		replace  hydrate.Replace
		expected int
	}{
		{name: "keep", replace: hydrate.KeepCollections, expected: 2},
		{name: "replace all", replace: hydrate.ReplaceAll(), expected: 1},
		{name: "replace this field", replace: hydrate.ReplaceFields("shapes"), expected: 1},
		{name: "replace another field", replace: hydrate.ReplaceFields("tags"), expected: 2},
	} {
		t.Run(example.name, func(t *testing.T) {
			h := makeHydrator(hydrate.DefaultOptions())
			drawing := &Drawing{shapes: []Shape{&CircleShape{radius: 1}}}
			err := h.Update(drawing, testutils.Record(t, payload), example.replace)
			assert.NilError(t, err)
			assert.Equal(t, len(drawing.shapes), example.expected)
			assert.Equal(t, drawing.shapes[len(drawing.shapes)-1].Area(), 4.0)
		})
	}
}

func TestSingleRecordIsACollectionOfOne(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	drawing := &Drawing{shapes: []Shape{&CircleShape{radius: 1}}}
	err := h.Update(drawing, testutils.Record(t, `{"shapes": {"kind": "square", "side": 3}}`), hydrate.KeepCollections)
	assert.NilError(t, err)
	assert.Equal(t, len(drawing.shapes), 2)
	assert.Equal(t, drawing.shapes[1].Area(), 9.0)
}

func TestUpdateIgnoresModelsThatAreNotUpdatable(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	owner := &Owner{Name: "Ada"}
	err := h.Update(owner, testutils.Record(t, `{"name": "Grace"}`), hydrate.ReplaceAll())
	assert.NilError(t, err)
	assert.Equal(t, owner.Name, "Ada")

	// Load is not affected.
	err = h.Load(owner, testutils.Record(t, `{"name": "Grace"}`))
	assert.NilError(t, err)
	assert.Equal(t, owner.Name, "Grace")
}

func TestUnboundKeys(t *testing.T) {
	payload := `{"name": "sketch", "colour": "blue"}`

	h := makeHydrator(hydrate.DefaultOptions())
	drawing := &Drawing{}
	assert.NilError(t, h.Load(drawing, testutils.Record(t, payload)))
	assert.Equal(t, drawing.name, "sketch")

	strict := makeHydrator(hydrate.StrictOptions())
	err := strict.Load(&Drawing{}, testutils.Record(t, payload))
	target := hydrate.UnboundKeyError{}
	assert.Assert(t, errors.As(err, &target))
	assert.Equal(t, target.Key, "colour")
	assert.Equal(t, target.Path, "Drawing")
}

func TestGetterOnlyKeysDoNotBind(t *testing.T) {
	strict := makeHydrator(hydrate.StrictOptions())
	err := strict.Load(&Drawing{}, testutils.Record(t, `{"shapes": [{"kind": "circle", "area": 3}]}`))
	assert.ErrorContains(t, err, `key "area" does not match`)
}

func TestDiscriminationErrorsPropagate(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())

	err := h.Load(&Drawing{}, testutils.Record(t, `{"shapes": [{"kind": "hexagon"}]}`))
	notFound := hydrate.TypeNotFoundError{}
	assert.Assert(t, errors.As(err, &notFound))
	assert.ErrorContains(t, err, "Drawing.shapes[0]")

	err = h.Load(&Drawing{}, testutils.Record(t, `{"shapes": [{"radius": 3}]}`))
	dataError := hydrate.DataError{}
	assert.Assert(t, errors.As(err, &dataError))

	// Resolves to a type that is not a shape.
	err = h.Load(&Drawing{}, testutils.Record(t, `{"shapes": [{"kind": "person"}]}`))
	valueError := hydrate.ValueError{}
	assert.Assert(t, errors.As(err, &valueError))
	assert.Equal(t, valueError.Expected, "hydrate_test.Shape")
}

func TestSetterErrorsPropagate(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	err := h.Load(&Drawing{}, testutils.Record(t, `{"shapes": [{"kind": "circle", "radius": -1}]}`))
	target := hydrate.CustomHydratorError{}
	assert.Assert(t, errors.As(err, &target))
	assert.Equal(t, target.Path, "Drawing.shapes[0].radius")
	assert.ErrorContains(t, err, "negative radius")
}

func TestInitializerAndValidator(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	drawing := &Drawing{}
	err := h.Load(drawing, testutils.Record(t, `{"shapes": [{"kind": "polygon"}, {"kind": "polygon", "sides": 6}]}`))
	assert.NilError(t, err)
	first := drawing.shapes[0].(*PolygonShape) //nolint:forcetypeassert
	assert.Assert(t, first.initialized)
	assert.Equal(t, first.sides, 3)
	assert.Equal(t, drawing.shapes[1].(*PolygonShape).sides, 6) //nolint:forcetypeassert

	err = h.Load(&Drawing{}, testutils.Record(t, `{"shapes": [{"kind": "polygon", "sides": 2}]}`))
	target := validation.Error{}
	assert.Assert(t, errors.As(err, &target))
	assert.Equal(t, target.Path, "Drawing.shapes[0]")
	assert.ErrorContains(t, err, "at least 3 sides")
}

func TestValidatorRunsOnRoot(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	polygon := &PolygonShape{}
	err := h.Load(polygon, testutils.Record(t, `{"sides": 1}`))
	target := validation.Error{}
	assert.Assert(t, errors.As(err, &target))
	assert.Equal(t, target.Path, "PolygonShape")
}

func TestDependenciesAreForwarded(t *testing.T) {
	clock := &Clock{Name: "hydrator"}
	options := hydrate.DefaultOptions()
	options.Deps = hydrate.Deps{clock}
	h := makeHydrator(options)

	drawing := &Drawing{}
	err := h.Load(drawing, testutils.Record(t, `{"owner": {"name": "Ada"}}`))
	assert.NilError(t, err)
	assert.Equal(t, drawing.owner.clock, clock)

	// A model may provide its own.
	own := &Clock{Name: "gallery"}
	gallery := &Gallery{deps: hydrate.Deps{own}}
	err = h.Load(gallery, testutils.Record(t, `{"owner": {"name": "Ada"}}`))
	assert.NilError(t, err)
	assert.Equal(t, gallery.owner.clock, own)
}

func TestHydrateRoot(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	shape, err := hydrate.Hydrate[Shape](h, testutils.Record(t, `{"kind": "square", "side": 2}`))
	assert.NilError(t, err)
	assert.Equal(t, shape.Area(), 4.0)

	drawing, err := hydrate.Hydrate[*Drawing](h, testutils.Record(t, `{"name": "sketch"}`))
	assert.NilError(t, err)
	assert.Equal(t, drawing.name, "sketch")

	_, err = hydrate.Hydrate[Shape](h, testutils.Record(t, `{"kind": "hexagon"}`))
	assert.ErrorContains(t, err, "cannot resolve a concrete type of shapes.Shape")
}

func TestConstructByName(t *testing.T) {
	options := hydrate.DefaultOptions()
	options.RootPath = "POST /drawings"
	h := makeHydrator(options)
	instance, err := h.Construct("shapes.Shape", testutils.Record(t, `{"kind": "circle", "radius": 2}`))
	assert.NilError(t, err)
	assert.Equal(t, instance.(*CircleShape).radius, 2.0) //nolint:forcetypeassert

	_, err = h.Construct("shapes.Shape", testutils.Record(t, `{"kind": "circle", "radius": "large"}`))
	assert.ErrorContains(t, err, "invalid value at POST /drawings.radius")
}

func TestLoadRejectsNonPointers(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	err := h.Load(Drawing{}, shared.NewRecord())
	assert.ErrorContains(t, err, "expected a non-nil pointer")

	var drawing *Drawing
	err = h.Load(drawing, shared.NewRecord())
	assert.ErrorContains(t, err, "expected a non-nil pointer")
}

func TestDirectFields(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	owner := &Owner{}
	err := h.Load(owner, testutils.Record(t, `{"id": "`+ownerID+`", "Name": "Ada"}`))
	assert.NilError(t, err)
	assert.Equal(t, owner.ID.String(), ownerID)
	assert.Equal(t, owner.Name, "Ada")

	err = h.Load(owner, testutils.Record(t, `{"id": "not-a-uuid"}`))
	target := hydrate.ValueError{}
	assert.Assert(t, errors.As(err, &target))
	assert.Equal(t, target.Path, "Owner.id")
}

func TestCoercion(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	counters := &Counters{}
	err := h.Load(counters, testutils.Record(t, `{
		"small": 100,
		"count": "42",
		"ratio": 0.5,
		"tags": ["a", "b"],
		"labels": {"x": 1, "y": 2.0},
		"color": "red",
		"level": 7
	}`))
	assert.NilError(t, err)
	assert.Equal(t, counters.small, int8(100))
	assert.Equal(t, counters.count, uint(42))
	assert.Equal(t, counters.ratio, float32(0.5))
	assert.DeepEqual(t, counters.tags, []string{"a", "b"})
	assert.DeepEqual(t, counters.labels, map[string]int{"x": 1, "y": 2})
	assert.Equal(t, counters.color, Color("red"))
	assert.Equal(t, counters.Level, 7)
}

func TestCoercionFailures(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	for _, payload := range []string{
		`{"small": 300}`,
		`{"small": "300"}`,
		`{"small": 1.5}`,
		`{"count": -1}`,
		`{"tags": [1, 2]}`,
		`{"color": true}`,
		`{"labels": {"x": "one"}}`,
		`{"level": {"nested": true}}`,
	} {
		err := h.Load(&Counters{}, testutils.Record(t, payload))
		target := hydrate.ValueError{}
		assert.Assert(t, errors.As(err, &target), payload)
	}
}

func TestUpdateDirectFieldToZero(t *testing.T) {
	h := makeHydrator(hydrate.DefaultOptions())
	counters := &Counters{Level: 3, tags: []string{"a"}}
	err := h.Update(counters, testutils.Record(t, `{"level": null, "tags": null}`), hydrate.KeepCollections)
	assert.NilError(t, err)
	assert.DeepEqual(t, counters, &Counters{}, cmp.AllowUnexported(Counters{}))
}

func TestRecordLoaderShortCircuits(t *testing.T) {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	assert.NilError(t, registry.Register("Pet", &hydrate.Document{}, hydrate.DocumentConstructor("Pet")))
	h := hydrate.New(registry, hydrate.StrictOptions())

	document := hydrate.NewDocument("Pet")
	err := h.Load(document, testutils.Record(t, `{"species": "cat", "anything": {"goes": [1, 2]}}`))
	assert.NilError(t, err)
	assert.DeepEqual(t, document.Fields().Keys(), []string{"species", "anything"})
}
