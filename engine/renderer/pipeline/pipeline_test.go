package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/driver"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/sbt"
	"github.com/Carmen-Shannon/vkrt-go/engine/renderer/shader"
)

func mustShader(t *testing.T, key string, stage driver.ShaderStage) shader.Shader {
	t.Helper()
	s, err := shader.NewShader(
		shader.WithKey(key),
		shader.WithStage(stage),
		shader.WithCode(make([]byte, 16)),
	)
	require.NoError(t, err)
	return s
}

func TestNewPipelineDerivesGroups(t *testing.T) {
	p, err := NewPipeline(
		WithKey("cubes"),
		WithShaders(
			mustShader(t, "rgen", driver.StageRaygen),
			mustShader(t, "isect", driver.StageIntersection),
			mustShader(t, "chit", driver.StageClosestHit),
			mustShader(t, "miss", driver.StageMiss),
		),
	)
	require.NoError(t, err)

	assert.Equal(t, "cubes", p.Key())
	assert.Equal(t, []driver.ShaderGroupSpec{
		{General: 0, ClosestHit: -1, Intersection: -1},
		{General: -1, ClosestHit: 2, Intersection: 1},
		{General: 3, ClosestHit: -1, Intersection: -1},
	}, p.Groups())
	assert.Equal(t, sbt.GroupCounts{Hit: 1, Miss: 1}, p.GroupCounts())
	assert.Equal(t, uint32(1), p.MaxRecursionDepth())
}

func TestNewPipelineExplicitHitGroups(t *testing.T) {
	p, err := NewPipeline(
		WithKey("two-hits"),
		WithShaders(
			mustShader(t, "rgen", driver.StageRaygen),
			mustShader(t, "isect", driver.StageIntersection),
			mustShader(t, "chit", driver.StageClosestHit),
			mustShader(t, "miss", driver.StageMiss),
		),
		WithHitGroups(
			HitGroup{ClosestHit: "chit", Intersection: "isect"},
			HitGroup{ClosestHit: "chit", Intersection: "isect"},
		),
		WithMaxRecursionDepth(2),
	)
	require.NoError(t, err)

	require.Len(t, p.Groups(), 4)
	assert.Equal(t, sbt.GroupCounts{Hit: 2, Miss: 1}, p.GroupCounts())
	assert.Equal(t, uint32(2), p.MaxRecursionDepth())
}

func TestNewPipelineValidation(t *testing.T) {
	_, err := NewPipeline(
		WithKey("no-raygen"),
		WithShaders(mustShader(t, "miss", driver.StageMiss)),
	)
	assert.Error(t, err)

	_, err = NewPipeline(
		WithKey("no-miss"),
		WithShaders(mustShader(t, "rgen", driver.StageRaygen)),
	)
	assert.Error(t, err)

	_, err = NewPipeline(
		WithKey("double-raygen"),
		WithShaders(
			mustShader(t, "a", driver.StageRaygen),
			mustShader(t, "b", driver.StageRaygen),
			mustShader(t, "miss", driver.StageMiss),
		),
	)
	assert.Error(t, err)

	_, err = NewPipeline(
		WithKey("bad-ref"),
		WithShaders(
			mustShader(t, "rgen", driver.StageRaygen),
			mustShader(t, "miss", driver.StageMiss),
		),
		WithHitGroups(HitGroup{ClosestHit: "nope"}),
	)
	assert.Error(t, err)
}

func TestNewShaderValidation(t *testing.T) {
	_, err := shader.NewShader(shader.WithKey("empty"))
	assert.Error(t, err)

	_, err = shader.NewShader(shader.WithKey("ragged"), shader.WithCode(make([]byte, 5)))
	assert.Error(t, err)
}
