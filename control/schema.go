// Package control exposes the running visualizer over GraphQL and HTTP.
package control

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/graphql-go/graphql"

	"github.com/peragwin/glslive/audio/spectrum"
	"github.com/peragwin/glslive/midi"
	"github.com/peragwin/glslive/shader"
)

// Sources are the live values the control surface reads and writes. Every
// field may be nil; the matching fields then resolve to null or fail.
type Sources struct {
	Table    *midi.Table
	Spectrum *spectrum.Buffers
	Status   func() *shader.Status
	Reload   func()
	Verbose  *atomic.Bool
}

// Surface is the GraphQL control surface.
type Surface struct {
	src    Sources
	schema graphql.Schema
}

// New builds the schema over src.
func New(src Sources) (*Surface, error) {
	s := &Surface{src: src}
	if err := s.initGraphql(); err != nil {
		return nil, err
	}
	return s, nil
}

type controller struct {
	Number int
	Value  int
}

func (s *Surface) controller(n int) (*controller, error) {
	if s.src.Table == nil {
		return nil, errors.New("no controller table")
	}
	if n < 0 || n >= midi.Controllers {
		return nil, fmt.Errorf("controller %d out of range", n)
	}
	return &controller{Number: n, Value: int(s.src.Table.Get(uint8(n)))}, nil
}

func (s *Surface) initGraphql() error {
	controllerType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "ControllerType",
			Fields: graphql.Fields{
				"number": &graphql.Field{
					Type: graphql.Int,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source.(*controller).Number, nil
					},
				},
				"value": &graphql.Field{
					Type: graphql.Int,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source.(*controller).Value, nil
					},
				},
				"normalized": &graphql.Field{
					Type: graphql.Float,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return float64(p.Source.(*controller).Value) / 127, nil
					},
				},
			},
		},
	)

	spectrumType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "SpectrumType",
			Fields: graphql.Fields{
				"bins": &graphql.Field{
					Type: graphql.Int,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source.(*spectrum.Buffers).Bins(), nil
					},
				},
				"raw": &graphql.Field{
					Type: graphql.NewList(graphql.Float),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return snapshot(p.Source.(*spectrum.Buffers).Raw), nil
					},
				},
				"smoothed": &graphql.Field{
					Type: graphql.NewList(graphql.Float),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return snapshot(p.Source.(*spectrum.Buffers).Smoothed), nil
					},
				},
			},
		},
	)

	statusField := func(f func(*shader.Status) interface{}) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			return f(p.Source.(*shader.Status)), nil
		}
	}
	programType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "ProgramType",
			Fields: graphql.Fields{
				"path": &graphql.Field{
					Type:    graphql.String,
					Resolve: statusField(func(s *shader.Status) interface{} { return s.Path }),
				},
				"active": &graphql.Field{
					Type:    graphql.Boolean,
					Resolve: statusField(func(s *shader.Status) interface{} { return s.Active() }),
				},
				"id": &graphql.Field{
					Type:    graphql.Int,
					Resolve: statusField(func(s *shader.Status) interface{} { return int(s.ProgramID) }),
				},
				"generation": &graphql.Field{
					Type:    graphql.Int,
					Resolve: statusField(func(s *shader.Status) interface{} { return int(s.Generation) }),
				},
				"loadedAt": &graphql.Field{
					Type: graphql.String,
					Resolve: statusField(func(s *shader.Status) interface{} {
						if !s.Active() {
							return nil
						}
						return s.LoadedAt.Format(time.RFC3339)
					}),
				},
				"lastError": &graphql.Field{
					Type:    graphql.String,
					Resolve: statusField(func(s *shader.Status) interface{} { return s.LastError }),
				},
				"reloads": &graphql.Field{
					Type:    graphql.Int,
					Resolve: statusField(func(s *shader.Status) interface{} { return int(s.Reloads) }),
				},
				"failures": &graphql.Field{
					Type:    graphql.Int,
					Resolve: statusField(func(s *shader.Status) interface{} { return int(s.Failures) }),
				},
			},
		},
	)

	rootQuery := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RootQuery",
			Fields: graphql.Fields{
				"controllers": &graphql.Field{
					Type: graphql.NewList(graphql.Int),
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						if s.src.Table == nil {
							return nil, nil
						}
						var snap [midi.Controllers]uint8
						s.src.Table.Snapshot(&snap)
						values := make([]int, len(snap))
						for i, v := range snap {
							values[i] = int(v)
						}
						return values, nil
					},
				},
				"controller": &graphql.Field{
					Type: controllerType,
					Args: graphql.FieldConfigArgument{
						"number": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return s.controller(p.Args["number"].(int))
					},
				},
				"spectrum": &graphql.Field{
					Type: spectrumType,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						if s.src.Spectrum == nil {
							return nil, nil
						}
						return s.src.Spectrum, nil
					},
				},
				"program": &graphql.Field{
					Type: programType,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						if s.src.Status == nil {
							return nil, nil
						}
						if st := s.src.Status(); st != nil {
							return st, nil
						}
						return nil, nil
					},
				},
				"verbose": &graphql.Field{
					Type: graphql.Boolean,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						return s.src.Verbose != nil && s.src.Verbose.Load(), nil
					},
				},
			},
		},
	)

	rootMut := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "RootMut",
			Fields: graphql.Fields{
				"reload": &graphql.Field{
					Type: graphql.Boolean,
					Resolve: func(graphql.ResolveParams) (interface{}, error) {
						if s.src.Reload == nil {
							return false, errors.New("reload unavailable")
						}
						s.src.Reload()
						glog.Info("control: reload requested")
						return true, nil
					},
				},
				"setController": &graphql.Field{
					Type: controllerType,
					Args: graphql.FieldConfigArgument{
						"number": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
						"value":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						n := p.Args["number"].(int)
						v := p.Args["value"].(int)
						if v < 0 || v > 127 {
							return nil, fmt.Errorf("value %d out of range", v)
						}
						if _, err := s.controller(n); err != nil {
							return nil, err
						}
						s.src.Table.Set(uint8(n), uint8(v))
						return s.controller(n)
					},
				},
				"verbose": &graphql.Field{
					Type: graphql.Boolean,
					Args: graphql.FieldConfigArgument{
						"on": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Boolean)},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						if s.src.Verbose == nil {
							return false, errors.New("verbose unavailable")
						}
						on := p.Args["on"].(bool)
						s.src.Verbose.Store(on)
						glog.Infof("control: verbose %v", on)
						return on, nil
					},
				},
			},
		},
	)

	schema, err := graphql.NewSchema(
		graphql.SchemaConfig{
			Query:    rootQuery,
			Mutation: rootMut,
		},
	)
	if err != nil {
		return err
	}
	s.schema = schema
	return nil
}

// Query runs a GraphQL request against the live sources.
func (s *Surface) Query(query string, vars map[string]interface{}) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  query,
		VariableValues: vars,
	})
}

func snapshot(b *spectrum.Buffer) []float64 {
	out := make([]float64, b.Len())
	for i := range out {
		out[i] = float64(b.Load(i))
	}
	return out
}
