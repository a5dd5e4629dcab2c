package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

func (cli *commandLine) emailLogs(ctx context.Context, limit int) error {
	if limit <= 0 {
		return errors.Errorf("invalid limit %d", limit)
	}
	logs, err := cli.deliveries.Recent(ctx, limit)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		transport := l.Transport
		if transport == "" {
			transport = "-"
		}
		rows = append(rows, []string{
			l.CreatedAt.Local().Format(time.DateTime), l.Kind, l.Recipient, l.Subject, transport, string(l.Status), l.Error,
		})
	}
	cli.printTable([]string{"Date", "Kind", "To", "Subject", "Transport", "Status", "Error"}, rows, nil)
	return nil
}
