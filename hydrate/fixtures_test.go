//nolint:exhaustruct
package hydrate_test

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/google/uuid"

	"github.com/pasqal-io/gohydrate/hydrate"
	"github.com/pasqal-io/gohydrate/validation"
)

type Shape interface {
	Area() float64
}

type CircleShape struct {
	radius float64
}

func (c *CircleShape) Area() float64 {
	return math.Pi * c.radius * c.radius
}

func (c *CircleShape) SetRadius(radius float64) error {
	if radius < 0 {
		return fmt.Errorf("negative radius %v", radius)
	}
	c.radius = radius
	return nil
}

func (c *CircleShape) GetRadius() float64 {
	return c.radius
}

type SquareShape struct {
	side float64
}

func (s *SquareShape) Area() float64 {
	return s.side * s.side
}

func (s *SquareShape) SetSide(side float64) {
	s.side = side
}

func (s *SquareShape) GetSide() float64 {
	return s.side
}

// Defaults to a triangle, rejects anything with fewer sides.
type PolygonShape struct {
	sides       int
	initialized bool
}

func (p *PolygonShape) Area() float64 {
	return 0
}

func (p *PolygonShape) Initialize() error {
	p.sides = 3
	p.initialized = true
	return nil
}

func (p *PolygonShape) Validate() error {
	if p.sides < 3 {
		return errors.New("a polygon has at least 3 sides")
	}
	return nil
}

func (p *PolygonShape) SetSides(sides int) {
	p.sides = sides
}

var (
	_ validation.Initializer = &PolygonShape{}
	_ validation.Validator   = &PolygonShape{}
)

type Clock struct {
	Name string
}

type Owner struct {
	ID    uuid.UUID `hydrate:"id"`
	Name  string    `hydrate:""`
	clock *Clock
}

func (o *Owner) GetID() uuid.UUID {
	return o.ID
}

func (o *Owner) GetName() string {
	return o.Name
}

type Note struct {
	text string
}

func (n *Note) SetText(text string) {
	n.text = text
}

func (n *Note) GetText() string {
	return n.text
}

type Drawing struct {
	name   string
	shapes []Shape
	owner  *Owner
	note   *Note
	secret string
}

func (d *Drawing) SetName(name string) {
	d.name = name
}

func (d *Drawing) GetName() string {
	return d.name
}

func (d *Drawing) SetShapes(shapes []Shape) {
	d.shapes = shapes
}

func (d *Drawing) AddShapes(shape Shape) {
	d.shapes = append(d.shapes, shape)
}

func (d *Drawing) GetShapes() []Shape {
	return d.shapes
}

func (d *Drawing) SetOwner(owner *Owner) {
	d.owner = owner
}

func (d *Drawing) GetOwner() *Owner {
	return d.owner
}

func (d *Drawing) SetNote(note *Note) {
	d.note = note
}

func (d *Drawing) SetSecret(secret string) {
	d.secret = secret
}

func (d *Drawing) Updatable() bool {
	return true
}

var _ hydrate.Updatable = &Drawing{}

// A drawing that hands its own dependencies to its children.
type Gallery struct {
	deps  hydrate.Deps
	owner *Owner
}

func (g *Gallery) Dependencies() hydrate.Deps {
	return g.deps
}

func (g *Gallery) SetOwner(owner *Owner) {
	g.owner = owner
}

var _ hydrate.DependencyProvider = &Gallery{}

type Color string

type Counters struct {
	small  int8
	count  uint
	ratio  float32
	tags   []string
	labels map[string]int
	color  Color
	Level  int `hydrate:"level"`
}

func (c *Counters) SetSmall(small int8) {
	c.small = small
}

func (c *Counters) SetCount(count uint) {
	c.count = count
}

func (c *Counters) SetRatio(ratio float32) {
	c.ratio = ratio
}

func (c *Counters) SetTags(tags []string) {
	c.tags = tags
}

func (c *Counters) SetLabels(labels map[string]int) {
	c.labels = labels
}

func (c *Counters) SetColor(color Color) {
	c.color = color
}

func (c *Counters) Updatable() bool {
	return true
}

type AType struct {
	value string
}

func (a *AType) SetValue(value string) {
	a.value = value
}

type BItem struct{}

// A polymorphic base declared by its own prototype.
type Animal struct{}

func (*Animal) Discriminator() hydrate.Descriptor {
	return hydrate.Descriptor{
		Field: "species",
	}
}

type Cat struct{}

var _ hydrate.Polymorphic = &Animal{}

// The registry used by most tests.
//
// - `shapes.Shape` is a polymorphic interface, discriminated by `kind`;
// - `Owner` is constructed with a `*Clock` picked from the dependencies.
func makeRegistry() *hydrate.Registry {
	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
	registry.MustRegisterBase("shapes.Shape", reflect.TypeFor[Shape](), &hydrate.Descriptor{
		Field:  "kind",
		Suffix: "Shape",
		Map: map[string]string{
			"disc":   "shapes.CircleShape",
			"person": "Owner",
		},
	})
	registry.MustRegister("shapes.CircleShape", &CircleShape{}, nil)
	registry.MustRegister("shapes.SquareShape", &SquareShape{}, nil)
	registry.MustRegister("shapes.PolygonShape", &PolygonShape{}, nil)
	registry.MustRegister("Owner", &Owner{}, func(_ *hydrate.Record, deps hydrate.Deps) (any, error) {
		clock, _ := hydrate.Dependency[*Clock](deps)
		return &Owner{clock: clock}, nil
	})
	registry.MustRegister("Drawing", &Drawing{}, nil)
	return registry
}
