// Package server exposes hosted games over gRPC and WebSocket.
package server

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wondersforge/wonders-server-go/internal/game/cards"
	"github.com/wondersforge/wonders-server-go/internal/game/state"
	"github.com/wondersforge/wonders-server-go/internal/table"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "wonders.v1.GameService"

// GameServiceServer is the server API for wonders.v1.GameService. Every
// request and response body is a google.protobuf.Struct.
type GameServiceServer interface {
	CreateGame(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLegalActions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetScores(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(GameServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GameServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + ServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GameServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GameServiceDesc describes wonders.v1.GameService for grpc.Server.
var GameServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateGame", Handler: unaryHandler("CreateGame", GameServiceServer.CreateGame)},
		{MethodName: "SubmitAction", Handler: unaryHandler("SubmitAction", GameServiceServer.SubmitAction)},
		{MethodName: "GetState", Handler: unaryHandler("GetState", GameServiceServer.GetState)},
		{MethodName: "ListLegalActions", Handler: unaryHandler("ListLegalActions", GameServiceServer.ListLegalActions)},
		{MethodName: "GetScores", Handler: unaryHandler("GetScores", GameServiceServer.GetScores)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wonders/v1/game.proto",
}

// RegisterGameService registers srv with s.
func RegisterGameService(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&GameServiceDesc, srv)
}

// gameService implements GameServiceServer on top of a table manager.
type gameService struct {
	manager *table.Manager
	logger  *zap.Logger
}

// NewGameService creates the gRPC game service.
func NewGameService(manager *table.Manager, logger *zap.Logger) GameServiceServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameService{manager: manager, logger: logger}
}

// CreateGame seats players and deals Age I.
func (s *gameService) CreateGame(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in createGameRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(in.Players) == 0 {
		return nil, status.Errorf(codes.InvalidArgument, "players are required")
	}

	ids := make([]string, 0, len(in.Players))
	assignments := make(map[string]state.WonderAssignment, len(in.Players))
	for _, seat := range in.Players {
		id := strings.TrimSpace(seat.ID)
		ids = append(ids, id)
		assignments[id] = state.WonderAssignment{
			WonderID: seat.WonderID,
			Side:     cards.WonderSide(strings.ToUpper(seat.Side)),
		}
	}

	snap, err := s.manager.Create(strings.TrimSpace(in.GameID), ids, assignments)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(viewOf(snap))
}

// SubmitAction applies one player action. A missing expectedVersion skips
// the version check.
func (s *gameService) SubmitAction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	gameID, err := requireGameID(req)
	if err != nil {
		return nil, err
	}
	a, err := actionFrom(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	snap, err := s.manager.Submit(gameID, expectedVersionFrom(req), a)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Debug("action applied",
		zap.String("game_id", gameID),
		zap.String("player_id", a.Actor()),
		zap.String("action", string(a.Type())),
		zap.Int("version", snap.State.Version),
	)
	return toStruct(viewOf(snap))
}

// GetState returns the current state and its checksum.
func (s *gameService) GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	gameID, err := requireGameID(req)
	if err != nil {
		return nil, err
	}
	snap, err := s.manager.State(gameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(viewOf(snap))
}

// ListLegalActions lists the non-trading plays open to a player.
func (s *gameService) ListLegalActions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in gameRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if in.GameID == "" {
		return nil, status.Errorf(codes.InvalidArgument, "gameId is required")
	}
	if in.PlayerID == "" {
		return nil, status.Errorf(codes.InvalidArgument, "playerId is required")
	}

	actions, err := s.manager.LegalActions(in.GameID, in.PlayerID)
	if err != nil {
		return nil, toStatus(err)
	}
	encoded, err := encodeActions(actions)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return toStruct(map[string]any{
		"gameId":   in.GameID,
		"playerId": in.PlayerID,
		"actions":  encoded,
	})
}

// GetScores returns score breakdowns, and the winner once the game is over.
func (s *gameService) GetScores(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	gameID, err := requireGameID(req)
	if err != nil {
		return nil, err
	}
	scores, winner, err := s.manager.Scores(gameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(scoresView{Scores: scores, Winner: winner, Final: winner != ""})
}

func requireGameID(req *structpb.Struct) (string, error) {
	gameID := strings.TrimSpace(req.GetFields()["gameId"].GetStringValue())
	if gameID == "" {
		return "", status.Errorf(codes.InvalidArgument, "gameId is required")
	}
	return gameID, nil
}
