package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wondersforge/wonders-server-go/internal/catalog"
	"github.com/wondersforge/wonders-server-go/internal/game"
	"github.com/wondersforge/wonders-server-go/internal/table"
)

func newManager(t *testing.T) *table.Manager {
	t.Helper()
	cat, err := catalog.Embedded()
	require.NoError(t, err)
	dealer := catalog.NewDeckBuilder(cat, catalog.DealerOptions{Shuffle: true, Seed: 11})
	return table.NewManager(cat, dealer, game.EngineOptions{}, zap.NewNop())
}

func startService(t *testing.T, manager *table.Manager) *GameServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	logger := zap.NewNop()
	srv := grpc.NewServer(grpc.UnaryInterceptor(ChainUnaryInterceptors(
		RecoveryInterceptor(logger),
		LoggingInterceptor(logger),
	)))
	RegisterGameService(srv, NewGameService(manager, logger))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewGameServiceClient(conn)
}

func mustStruct(t *testing.T, v map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(v)
	require.NoError(t, err)
	return s
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

var createBody = map[string]any{
	"gameId": "g1",
	"players": []any{
		map[string]any{"id": "ada", "wonderId": "giza", "side": "A"},
		map[string]any{"id": "brook", "wonderId": "rhodes", "side": "a"},
		map[string]any{"id": "cyd", "wonderId": "olympia", "side": "B"},
	},
}

func createGame(t *testing.T, client *GameServiceClient) GameView {
	t.Helper()
	resp, err := client.CreateGame(testContext(t), mustStruct(t, createBody))
	require.NoError(t, err)
	var view GameView
	require.NoError(t, fromStruct(resp, &view))
	return view
}

func TestCreateAndGetState(t *testing.T) {
	client := startService(t, newManager(t))
	ctx := testContext(t)

	created := createGame(t, client)
	assert.Equal(t, "g1", created.GameID)
	assert.Equal(t, "PLAYING", created.Status)
	assert.NotEmpty(t, created.Checksum)
	require.NotNil(t, created.State)
	require.Len(t, created.State.Players, 3)
	assert.Len(t, created.State.Players[0].Hand, 7)

	resp, err := client.GetState(ctx, mustStruct(t, map[string]any{"gameId": "g1"}))
	require.NoError(t, err)
	var view GameView
	require.NoError(t, fromStruct(resp, &view))
	assert.Equal(t, created.Checksum, view.Checksum)
	assert.Equal(t, created.Version, view.Version)

	_, err = client.CreateGame(ctx, mustStruct(t, createBody))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestSubmitAction(t *testing.T) {
	client := startService(t, newManager(t))
	ctx := testContext(t)
	created := createGame(t, client)
	card := created.State.Players[0].Hand[0]

	submit := func(version any, cardID string) (*structpb.Struct, error) {
		return client.SubmitAction(ctx, mustStruct(t, map[string]any{
			"gameId":          "g1",
			"expectedVersion": version,
			"action": map[string]any{
				"type":           "DISCARD_CARD",
				"playerId":       "ada",
				"cardInstanceId": cardID,
			},
		}))
	}

	_, err := submit(float64(created.Version-1), card)
	assert.Equal(t, codes.Aborted, status.Code(err))

	_, err = submit(nil, "missing_1")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "Card missing_1 not in hand")

	resp, err := submit(float64(created.Version), card)
	require.NoError(t, err)
	var view GameView
	require.NoError(t, fromStruct(resp, &view))
	assert.Equal(t, created.Version+1, view.Version)
	assert.Contains(t, view.State.DiscardPile, card)

	_, err = submit(nil, card)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSubmitRejectsMalformedRequests(t *testing.T) {
	client := startService(t, newManager(t))
	ctx := testContext(t)
	createGame(t, client)

	_, err := client.SubmitAction(ctx, mustStruct(t, map[string]any{"gameId": "g1"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.SubmitAction(ctx, mustStruct(t, map[string]any{
		"gameId": "g1",
		"action": map[string]any{"type": "FLY"},
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.SubmitAction(ctx, mustStruct(t, map[string]any{
		"action": map[string]any{"type": "DISCARD_CARD"},
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.SubmitAction(ctx, mustStruct(t, map[string]any{
		"gameId": "nope",
		"action": map[string]any{"type": "DISCARD_CARD", "playerId": "ada", "cardInstanceId": "x"},
	}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListLegalActions(t *testing.T) {
	client := startService(t, newManager(t))
	ctx := testContext(t)
	createGame(t, client)

	resp, err := client.ListLegalActions(ctx, mustStruct(t, map[string]any{"gameId": "g1", "playerId": "brook"}))
	require.NoError(t, err)
	actions := resp.GetFields()["actions"].GetListValue().GetValues()
	assert.GreaterOrEqual(t, len(actions), 7)
	for _, a := range actions {
		assert.Equal(t, "brook", a.GetStructValue().GetFields()["playerId"].GetStringValue())
	}

	_, err = client.ListLegalActions(ctx, mustStruct(t, map[string]any{"gameId": "g1", "playerId": "zed"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = client.ListLegalActions(ctx, mustStruct(t, map[string]any{"gameId": "g1"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetScores(t *testing.T) {
	client := startService(t, newManager(t))
	ctx := testContext(t)
	createGame(t, client)

	resp, err := client.GetScores(ctx, mustStruct(t, map[string]any{"gameId": "g1"}))
	require.NoError(t, err)
	var scores scoresView
	require.NoError(t, fromStruct(resp, &scores))
	assert.Len(t, scores.Scores, 3)
	assert.False(t, scores.Final)
	assert.Empty(t, scores.Winner)
	// every seat starts with three coins, worth one point
	assert.Equal(t, 1, scores.Scores["ada"].Coins)
}

func TestCreateGameValidation(t *testing.T) {
	client := startService(t, newManager(t))
	ctx := testContext(t)

	_, err := client.CreateGame(ctx, mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.CreateGame(ctx, mustStruct(t, map[string]any{
		"players": []any{
			map[string]any{"id": "ada", "wonderId": "giza", "side": "A"},
			map[string]any{"id": "brook", "wonderId": "rhodes", "side": "A"},
		},
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.CreateGame(ctx, mustStruct(t, map[string]any{
		"players": []any{
			map[string]any{"id": "ada", "wonderId": "giza", "side": "A"},
			map[string]any{"id": "brook", "wonderId": "rhodes", "side": "A"},
			map[string]any{"id": "cyd", "wonderId": "atlantis", "side": "A"},
		},
	}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(zap.NewNop())
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/test/Panic"},
		func(context.Context, any) (any, error) { panic("boom") })
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestChainUnaryInterceptorsOrder(t *testing.T) {
	var order []string
	mark := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			order = append(order, name)
			return handler(ctx, req)
		}
	}
	chain := ChainUnaryInterceptors(mark("outer"), mark("inner"))
	resp, err := chain(context.Background(), "req", &grpc.UnaryServerInfo{},
		func(_ context.Context, req any) (any, error) {
			order = append(order, "handler")
			return req, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "req", resp)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{table.ErrGameNotFound, codes.NotFound},
		{table.ErrNotSeated, codes.NotFound},
		{table.ErrStaleVersion, codes.Aborted},
		{table.ErrGameFinished, codes.FailedPrecondition},
		{table.ErrGameFailed, codes.FailedPrecondition},
		{&game.InvariantViolation{Invariant: game.InvariantVersion}, codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCode(tt.err), tt.err.Error())
	}
}
