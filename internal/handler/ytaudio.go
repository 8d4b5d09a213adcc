package handler

import (
	"context"
	"fmt"
	"os"
	"strings"

	"carcamalbot/internal/domain"
	"carcamalbot/internal/worker"

	"go.uber.org/zap"
)

const audioFailedText = "Failed to download audio"

// handleYtAudio handles /ytaudio <url>. The download runs on the worker pool.
func (h *Handler) handleYtAudio(ctx context.Context, msg domain.Message) error {
	_, args, _ := ParseCommand(msg.Text)
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return h.reply(ctx, msg, "usage: cmd url")
	}
	url := fields[0]
	chatID := msg.ChatID

	if err := h.sender.Typing(ctx, chatID); err != nil {
		h.logger.Warn("Failed to send typing action", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	taskID, err := h.pool.Submit(worker.Task{
		Name: "ytaudio",
		Run: func(ctx context.Context) error {
			return h.downloadAudio(ctx, chatID, url)
		},
		OnError: func(ctx context.Context, _ error) {
			if err := h.sender.Send(ctx, chatID, domain.TextReply(audioFailedText)); err != nil {
				h.logger.Error("Failed to report download failure", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		},
	})
	if err != nil {
		h.logger.Error("Failed to schedule download", zap.String("url", url), zap.Error(err))
		return h.reply(ctx, msg, audioFailedText)
	}

	h.logger.Info("Scheduled audio download",
		zap.Int64("user_id", msg.UserID),
		zap.String("task_id", taskID),
		zap.String("url", url),
	)
	return nil
}

func (h *Handler) downloadAudio(ctx context.Context, chatID int64, url string) error {
	dir, err := os.MkdirTemp(h.downloadRoot, "ytaudio-*")
	if err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path, err := h.downloader.DownloadAudio(ctx, url, dir)
	if err != nil {
		return err
	}
	if err := h.sender.SendAudio(ctx, chatID, path); err != nil {
		return fmt.Errorf("failed to upload audio: %w", err)
	}
	return nil
}
