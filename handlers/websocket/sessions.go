package websocket

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"certificate-server/editor"
	"certificate-server/session"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

var (
	activeSessions = make(map[string]int)
	sessionsMutex  sync.RWMutex
)

// GetActiveSessions returns the number of connected sockets per session.
func GetActiveSessions() map[string]int {
	sessionsMutex.RLock()
	defer sessionsMutex.RUnlock()

	sessions := make(map[string]int, len(activeSessions))
	for k, v := range activeSessions {
		sessions[k] = v
	}
	return sessions
}

func setActiveCount(sessionID string, n int) {
	sessionsMutex.Lock()
	defer sessionsMutex.Unlock()

	if n <= 0 {
		delete(activeSessions, sessionID)
		return
	}
	activeSessions[sessionID] = n
}

var localhostOrigin = regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)

// SetupSocketIO serves editing sessions of reg over socket.io.
func SetupSocketIO(reg *session.Registry, allowedOrigins []string) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)

	origins := []any{localhostOrigin}
	for _, origin := range allowedOrigins {
		origins = append(origins, origin)
	}
	opts.SetCors(&types.Cors{
		Origin:      origins,
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		me := socket.Id()
		log := logrus.WithField("socket_id", me)
		log.Debug("Socket connected")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join-session", func(datas ...any) {
			ack, args := extractAck(datas)
			sessionID, err := sessionIDArg(args)
			if err != nil {
				ackReply{err: err}.send(socket, ack, "join-session-ack")
				return
			}

			state, err := reg.State(sessionID)
			if err != nil {
				ackReply{err: err}.send(socket, ack, "join-session-ack")
				return
			}

			room := socketio.Room(sessionID)
			socket.Join(room)
			log.WithField("session_id", sessionID).Info("Socket joined session")

			srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, fetchErr error) {
				if fetchErr != nil {
					ackReply{err: fetchErr}.send(socket, ack, "join-session-ack")
					return
				}

				setActiveCount(sessionID, len(users))

				ids := make([]socketio.SocketId, 0, len(users))
				for _, user := range users {
					ids = append(ids, user.Id())
				}
				_ = srv.In(room).Emit("session-users", ids)

				reply := ackReply{state: &state, extra: map[string]any{"user_count": len(users)}}
				reply.send(socket, ack, "join-session-ack")
			})
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("session-command", func(datas ...any) {
			ack, args := extractAck(datas)
			sessionID, err := sessionIDArg(args)
			if err != nil {
				ackReply{err: err}.send(socket, ack, "session-command-ack")
				return
			}
			if len(args) < 2 {
				err := errors.Wrap(editor.ErrInvalidCommand, "command is required")
				ackReply{err: err}.send(socket, ack, "session-command-ack")
				return
			}

			cmd, err := decodeCommand(args[1])
			if err != nil {
				ackReply{err: err}.send(socket, ack, "session-command-ack")
				return
			}

			state, err := reg.Apply(sessionID, cmd)
			if err != nil {
				log.WithError(err).WithField("session_id", sessionID).Warn("Session command rejected")
				ackReply{err: err}.send(socket, ack, "session-command-ack")
				return
			}

			_ = srv.To(socketio.Room(sessionID)).Emit("session-state", state)
			ackReply{state: &state}.send(socket, ack, "session-command-ack")
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("disconnecting", func(datas ...any) {
			for _, currentRoom := range socket.Rooms().Keys() {
				if currentRoom == socketio.Room(me) {
					continue
				}
				sessionID := string(currentRoom)
				srv.In(currentRoom).FetchSockets()(func(users []*socketio.RemoteSocket, _ error) {
					others := make([]socketio.SocketId, 0, len(users))
					for _, user := range users {
						if user.Id() != me {
							others = append(others, user.Id())
						}
					}

					setActiveCount(sessionID, len(others))
					if len(others) > 0 {
						_ = srv.In(currentRoom).Emit("session-users", others)
					}
					log.WithField("session_id", sessionID).Debug("Socket left session")
				})
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return srv
}

func sessionIDArg(args []any) (string, error) {
	if len(args) == 0 {
		return "", errors.Wrap(session.ErrSessionNotFound, "session id is required")
	}
	id, ok := args[0].(string)
	if !ok || id == "" {
		return "", errors.Wrap(session.ErrSessionNotFound, "invalid session id")
	}
	return id, nil
}

// decodeCommand converts a decoded socket.io payload (usually a
// map[string]any) into a command.
func decodeCommand(raw any) (editor.Command, error) {
	var cmd editor.Command

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return cmd, errors.Wrap(editor.ErrInvalidCommand, err.Error())
		}
	}

	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, errors.Wrap(editor.ErrInvalidCommand, fmt.Sprintf("decode command: %v", err))
	}
	return cmd, nil
}
