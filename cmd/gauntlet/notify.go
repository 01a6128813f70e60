package main

import (
	"log/slog"

	"github.com/fjell-io/gauntlet/internal/config"
	"github.com/fjell-io/gauntlet/internal/notify"
	"github.com/fjell-io/gauntlet/internal/pipeline"
)

func sendNotifications(cfg *config.Config, res *pipeline.Result, logger *slog.Logger, dryRun bool) error {
	if len(cfg.Notify) == 0 {
		logger.Debug("no notify targets configured")
		return nil
	}

	data := notify.BuildTemplateData(cfg.Globals, res)
	targets, err := notify.ResolveTargets(mapNotifyRefs(cfg.Notify), mapServiceDefs(cfg.Services), data)
	if err != nil {
		return err
	}

	for _, t := range targets {
		if dryRun {
			if err := notify.Validate(t); err != nil {
				return err
			}
			logger.Info("would notify", "service", t.ServiceName, "message", t.Message)
			continue
		}

		logger.Info("sending notification", "service", t.ServiceName)
		if err := notify.Send(t); err != nil {
			return err
		}
	}
	return nil
}

func mapNotifyRefs(targets []config.NotifyTarget) []notify.NotifyRef {
	refs := make([]notify.NotifyRef, len(targets))
	for i, t := range targets {
		refs[i] = notify.NotifyRef{
			ServiceName: t.Service,
			Template:    t.Template,
			Params:      t.Params,
		}
	}
	return refs
}

func mapServiceDefs(services map[string]config.Service) map[string]notify.ServiceDef {
	defs := make(map[string]notify.ServiceDef, len(services))
	for name, svc := range services {
		defs[name] = notify.ServiceDef{
			URL:    svc.URL,
			Params: svc.Params,
		}
	}
	return defs
}
