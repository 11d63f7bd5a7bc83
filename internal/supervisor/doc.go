// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

/*
Package supervisor runs the long-lived services of Song Passport under a
suture v4 supervisor tree.

	RootSupervisor ("songpassport")
	├── DataSupervisor ("data-layer")
	│   └── SessionPurgeService
	├── MessagingSupervisor ("messaging-layer")
	│   └── events.Consumer (when the action log is enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Each layer restarts its own services. A consumer crash does not take the
HTTP server down. Supervisor events are logged through sutureslog using the
slog adapter of the logging package.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewSessionPurgeService(sessions, 15*time.Minute))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
