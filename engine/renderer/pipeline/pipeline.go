// Package pipeline describes ray-tracing pipelines: their shader stages, the
// shader-group layout the binding table is derived from, and the recursion
// depth.
package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/sbt"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/shader"
)

// HitGroup names the shaders of one hit group by their shader keys. A
// triangle hit group sets only ClosestHit; a procedural hit group also sets
// Intersection. Empty strings leave the slot unused.
type HitGroup struct {
	ClosestHit   string
	Intersection string
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	key          string
	shaders      []shader.Shader
	hitGroups    []HitGroup
	maxRecursion uint32

	groups []driver.ShaderGroupSpec
	counts sbt.GroupCounts
}

// Pipeline defines the interface for a ray-tracing pipeline description. The
// group ordering is fixed as raygen, hit groups, then miss groups; region
// arithmetic in the shader binding table depends on this order.
type Pipeline interface {
	// Key retrieves the unique identifier for this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the pipeline's unique key
	Key() string

	// Shaders retrieves the shader stages in declaration order. Group specs
	// index into this slice.
	//
	// Returns:
	//   - []shader.Shader: the shader stages
	Shaders() []shader.Shader

	// Groups retrieves the shader-group specs in binding table order.
	//
	// Returns:
	//   - []driver.ShaderGroupSpec: the group specs
	Groups() []driver.ShaderGroupSpec

	// GroupCounts retrieves the group layout consumed by the shader binding
	// table builder.
	//
	// Returns:
	//   - sbt.GroupCounts: the hit, miss, and callable group counts
	GroupCounts() sbt.GroupCounts

	// MaxRecursionDepth retrieves the maximum ray recursion depth.
	//
	// Returns:
	//   - uint32: the recursion depth, at least 1
	MaxRecursionDepth() uint32
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline instance configured with the provided
// options and derives its shader groups: one raygen group, the declared hit
// groups, then one miss group per miss shader. Exactly one raygen shader and
// at least one miss shader are required. When no hit group is declared, one
// is derived from the closest-hit and intersection shaders present.
//
// Parameters:
//   - options: variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance
//   - error: an error if the stage set cannot form a valid group layout
func NewPipeline(options ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipeline{
		maxRecursion: 1,
	}
	for _, opt := range options {
		opt(p)
	}
	if err := p.deriveGroups(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *pipeline) deriveGroups() error {
	stageIndex := make(map[string]int, len(p.shaders))
	raygen, miss := -1, []int{}
	var closestHit, intersection int = -1, -1
	for i, s := range p.shaders {
		stageIndex[s.Key()] = i
		switch s.Stage() {
		case driver.StageRaygen:
			if raygen >= 0 {
				return fmt.Errorf("pipeline %q declares more than one raygen shader", p.key)
			}
			raygen = i
		case driver.StageMiss:
			miss = append(miss, i)
		case driver.StageClosestHit:
			closestHit = i
		case driver.StageIntersection:
			intersection = i
		}
	}
	if raygen < 0 {
		return fmt.Errorf("pipeline %q has no raygen shader", p.key)
	}
	if len(miss) == 0 {
		return fmt.Errorf("pipeline %q has no miss shader", p.key)
	}

	hitGroups := p.hitGroups
	if len(hitGroups) == 0 && (closestHit >= 0 || intersection >= 0) {
		derived := HitGroup{}
		if closestHit >= 0 {
			derived.ClosestHit = p.shaders[closestHit].Key()
		}
		if intersection >= 0 {
			derived.Intersection = p.shaders[intersection].Key()
		}
		hitGroups = []HitGroup{derived}
	}

	p.groups = append(p.groups, driver.ShaderGroupSpec{General: raygen, ClosestHit: -1, Intersection: -1})
	for _, hg := range hitGroups {
		group := driver.ShaderGroupSpec{General: -1, ClosestHit: -1, Intersection: -1}
		if hg.ClosestHit != "" {
			idx, ok := stageIndex[hg.ClosestHit]
			if !ok {
				return fmt.Errorf("pipeline %q hit group references unknown shader %q", p.key, hg.ClosestHit)
			}
			group.ClosestHit = idx
		}
		if hg.Intersection != "" {
			idx, ok := stageIndex[hg.Intersection]
			if !ok {
				return fmt.Errorf("pipeline %q hit group references unknown shader %q", p.key, hg.Intersection)
			}
			group.Intersection = idx
		}
		p.groups = append(p.groups, group)
	}
	for _, m := range miss {
		p.groups = append(p.groups, driver.ShaderGroupSpec{General: m, ClosestHit: -1, Intersection: -1})
	}

	p.counts = sbt.GroupCounts{
		Hit:  uint32(len(hitGroups)),
		Miss: uint32(len(miss)),
	}
	return nil
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Shaders() []shader.Shader {
	return p.shaders
}

func (p *pipeline) Groups() []driver.ShaderGroupSpec {
	return p.groups
}

func (p *pipeline) GroupCounts() sbt.GroupCounts {
	return p.counts
}

func (p *pipeline) MaxRecursionDepth() uint32 {
	return p.maxRecursion
}
