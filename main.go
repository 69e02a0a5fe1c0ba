/*
main.go

Copyright © 2025 Code Monkey Cybersecurity
Contact: git@cybermonkey.net.au

This file is part of releasectl.

This software is dual-licensed under the Do No Harm License
and the GNU Affero General Public License v3 (AGPL-3.0-or-later).
You may use, modify, and distribute it under the terms of either license.

See LICENSE.agpl and LICENSE.dnh for full details.
*/
package main

import (
	"context"
	"os"

	"github.com/CodeMonkeyCybersecurity/releasectl/cmd"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/releasectl/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	logger.InitializeWithFallback()

	shutdown, err := telemetry.Init(cmd.Prog)
	if err != nil {
		logger.L().Warn("Tracing disabled", zap.Error(err))
	}

	code := cmd.Execute()

	if shutdown != nil {
		if err := shutdown(context.Background()); err != nil {
			logger.L().Warn("Failed to flush traces", zap.Error(err))
		}
	}
	os.Exit(code)
}
