package http

import (
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	infra "github.com/HarshalVankudre/CourseViewer/internal/infrastructure"
)

func apiEndpoint(
	websocket *infra.Websocket,
	SyncHandler *SyncHandler,
	requestIDMiddleware echo.MiddlewareFunc,
	traceLoggerMiddleware echo.MiddlewareFunc,
) *endpoint {
	return &endpoint{
		apiVersion:  "api",
		middlewares: []echo.MiddlewareFunc{requestIDMiddleware, traceLoggerMiddleware},
		groups: []*apiGroup{
			{
				prefix: "",
				routes: []*route{
					{"GET", "/sync/:userId", SyncHandler.HandleGetSync, nil},
					{"POST", "/progress", SyncHandler.HandleUpdateProgress, nil},
					{"POST", "/note", SyncHandler.HandleSaveNote, nil},
				},
			},
			{
				prefix: "/ws",
				routes: []*route{
					{"GET", "/echo", websocket.WithHeartbeat(HandleEcho), nil},
				},
			},
		},
	}
}

// HandleEcho reflect frames back to the client, a connectivity probe
// the viewer uses to detect when it has gone offline
func HandleEcho(conn *websocket.Conn) error {
	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(mt, message); err != nil {
			return err
		}
	}
}
