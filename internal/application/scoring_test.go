package app

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"posture-coach/internal/domain/entity"
	"posture-coach/internal/infrastructure/storage"
)

func newTestEngine(opts ...EngineOption) (*ScoringEngine, *storage.MemoryStateStore, *recordingSink) {
	store := storage.NewMemoryStateStore()
	sink := &recordingSink{}
	store.Activate("s1")
	return NewScoringEngine(store, sink, nullLogger(), opts...), store, sink
}

func TestScoringEngine_Score_Aligned(t *testing.T) {
	engine, _, _ := newTestEngine()

	p, err := engine.Score(&entity.LandmarkFrame{Seq: 1, Landmarks: alignedPose()})
	require.NoError(t, err)
	require.Equal(t, 100, p.Score)
	require.Equal(t, entity.TierGood, p.Tier)
	require.Equal(t, entity.TierGood.Tip(), p.Tip)
}

func TestScoringEngine_Score_HeadForward(t *testing.T) {
	engine, _, _ := newTestEngine()

	frame := &entity.LandmarkFrame{
		Seq:       1,
		Landmarks: pose(entity.Landmark{X: 0.60, Y: 0.30}, entity.Landmark{X: 0.50, Y: 0.55}),
	}
	p, err := engine.Score(frame)
	require.NoError(t, err)
	require.Equal(t, 0, p.Score)
	require.Equal(t, entity.TierNeedsCorrection, p.Tier)
}

func TestScoringEngine_Score_RightSide(t *testing.T) {
	engine, _, _ := newTestEngine(WithSide(entity.SideRight))

	points := alignedPose()
	points[entity.RightEar] = entity.Landmark{X: 0.501, Y: 0.3}
	points[entity.RightShoulder] = entity.Landmark{X: 0.5, Y: 0.55}

	p, err := engine.Score(&entity.LandmarkFrame{Landmarks: points})
	require.NoError(t, err)
	require.Equal(t, 70, p.Score)
	require.Equal(t, entity.TierMinorAdjustment, p.Tier)
}

func TestScoringEngine_Score_Rejects(t *testing.T) {
	engine, _, _ := newTestEngine(WithMinVisibility(0.5))

	outOfFrame := alignedPose()
	outOfFrame[entity.LeftEar] = entity.Landmark{X: 1.3, Y: 0.3, Visibility: 1}

	nan := alignedPose()
	nan[entity.LeftShoulder] = entity.Landmark{X: math.NaN(), Y: 0.5, Visibility: 1}

	hidden := alignedPose()
	hidden[entity.LeftEar].Visibility = 0.1

	tests := []struct {
		name  string
		frame *entity.LandmarkFrame
		err   error
	}{
		{"nil frame", nil, entity.ErrNoPose},
		{"no landmarks", &entity.LandmarkFrame{}, entity.ErrNoPose},
		{"wrong count", &entity.LandmarkFrame{Landmarks: alignedPose()[:12]}, entity.ErrMalformedFrame},
		{"out of frame", &entity.LandmarkFrame{Landmarks: outOfFrame}, entity.ErrMalformedFrame},
		{"nan", &entity.LandmarkFrame{Landmarks: nan}, entity.ErrMalformedFrame},
		{"low visibility", &entity.LandmarkFrame{Landmarks: hidden}, entity.ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Score(tt.frame)
			require.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestScoringEngine_Handle_PublishesPair(t *testing.T) {
	engine, store, sink := newTestEngine()
	ctx := context.Background()

	require.True(t, engine.Handle(ctx, "s1", &entity.LandmarkFrame{Seq: 1, Landmarks: alignedPose()}))

	state := store.Snapshot()
	require.True(t, state.HasPosture)
	require.Equal(t, 100, state.Posture.Score)
	require.Equal(t, entity.TierGood.Tip(), state.Posture.Tip)
	require.Len(t, sink.Postures(), 1)
}

func TestScoringEngine_Handle_NoCrossFrameMixing(t *testing.T) {
	engine, store, _ := newTestEngine()
	ctx := context.Background()

	require.True(t, engine.Handle(ctx, "s1", &entity.LandmarkFrame{Seq: 1, Landmarks: alignedPose()}))

	second := pose(entity.Landmark{X: 0.501, Y: 0.3}, entity.Landmark{X: 0.5, Y: 0.55})
	require.True(t, engine.Handle(ctx, "s1", &entity.LandmarkFrame{Seq: 2, Landmarks: second}))

	state := store.Snapshot()
	require.Equal(t, uint64(2), state.Posture.FrameSeq)
	require.Equal(t, 70, state.Posture.Score)
	require.Equal(t, entity.TierMinorAdjustment, state.Posture.Tier)
	require.Equal(t, entity.TierMinorAdjustment.Tip(), state.Posture.Tip)
}

func TestScoringEngine_Handle_BadInputKeepsState(t *testing.T) {
	engine, store, sink := newTestEngine()
	ctx := context.Background()

	require.True(t, engine.Handle(ctx, "s1", &entity.LandmarkFrame{Seq: 1, Landmarks: alignedPose()}))
	before := store.Snapshot()

	bad := alignedPose()
	bad[entity.LeftEar] = entity.Landmark{X: -0.2, Y: 0.3}

	require.False(t, engine.Handle(ctx, "s1", &entity.LandmarkFrame{Seq: 2, Landmarks: bad}))
	require.False(t, engine.Handle(ctx, "s1", &entity.LandmarkFrame{Seq: 3, Landmarks: bad[:5]}))
	require.False(t, engine.Handle(ctx, "s1", &entity.LandmarkFrame{Seq: 4}))
	require.False(t, engine.Handle(ctx, "s1", nil))

	require.Equal(t, before, store.Snapshot())
	require.Len(t, sink.Postures(), 1)
}

func TestScoringEngine_Handle_StaleSessionDiscarded(t *testing.T) {
	engine, store, sink := newTestEngine()

	require.False(t, engine.Handle(context.Background(), "old", &entity.LandmarkFrame{Seq: 1, Landmarks: alignedPose()}))
	require.False(t, store.Snapshot().HasPosture)
	require.Empty(t, sink.Postures())
}

func imageFrame(seq uint64, landmarks []entity.Landmark) *entity.LandmarkFrame {
	return &entity.LandmarkFrame{Seq: seq, Image: entity.Image{Data: []byte{1}}, Landmarks: landmarks}
}

func TestScoringEngine_Handle_RendersScoredFrame(t *testing.T) {
	renderer := &recordingRenderer{}
	engine, _, _ := newTestEngine(WithRenderer(renderer))

	require.True(t, engine.Handle(context.Background(), "s1", imageFrame(1, alignedPose())))
	require.Equal(t, []renderCall{{seq: 1, scored: true}}, renderer.Calls())
}

func TestScoringEngine_Handle_RendersSkippedFrameWithoutPosture(t *testing.T) {
	renderer := &recordingRenderer{}
	engine, _, _ := newTestEngine(WithRenderer(renderer))

	// Кадр текущей сессии без позы всё равно показываем, но без оценки.
	require.False(t, engine.Handle(context.Background(), "s1", imageFrame(2, nil)))
	require.Equal(t, []renderCall{{seq: 2, scored: false}}, renderer.Calls())
}

func TestScoringEngine_Handle_StaleSessionNotRendered(t *testing.T) {
	renderer := &recordingRenderer{}
	engine, _, _ := newTestEngine(WithRenderer(renderer))
	ctx := context.Background()

	require.False(t, engine.Handle(ctx, "old", imageFrame(1, alignedPose())))
	require.False(t, engine.Handle(ctx, "old", imageFrame(2, nil)))
	require.Empty(t, renderer.Calls())
}

func TestScoringEngine_Handle_EmptyImageNotRendered(t *testing.T) {
	renderer := &recordingRenderer{}
	engine, _, _ := newTestEngine(WithRenderer(renderer))

	require.True(t, engine.Handle(context.Background(), "s1", &entity.LandmarkFrame{Seq: 1, Landmarks: alignedPose()}))
	require.Empty(t, renderer.Calls())
}

func TestScoringEngine_Handle_DisableAfterPublishSkipsSink(t *testing.T) {
	store := disableAfterPublish{storage.NewMemoryStateStore()}
	store.Activate("s1")
	sink := &recordingSink{}
	engine := NewScoringEngine(store, sink, nullLogger())

	require.True(t, engine.Handle(context.Background(), "s1", imageFrame(1, alignedPose())))

	// Оценка успела попасть в состояние, но в выключенную сессию не показывается.
	state := store.Snapshot()
	require.False(t, state.Enabled)
	require.True(t, state.HasPosture)
	require.Empty(t, sink.Postures())
}
