package handler

import (
	"context"

	"carcamalbot/internal/domain"
	"carcamalbot/internal/middleware"
	"carcamalbot/internal/service"
	"carcamalbot/internal/worker"

	"go.uber.org/zap"
)

// AudioDownloader fetches the audio track of a video url into dir
type AudioDownloader interface {
	DownloadAudio(ctx context.Context, url, dir string) (string, error)
}

// FortuneTeller returns a random fortune
type FortuneTeller interface {
	Fortune(ctx context.Context) (string, error)
}

// TaskSubmitter schedules background work
type TaskSubmitter interface {
	Submit(task worker.Task) (string, error)
}

// Handler holds the command bodies and what they depend on
type Handler struct {
	authService  *service.AuthService
	convService  *service.ConversationService
	shopService  *service.ShopListService
	sender       domain.Sender
	pool         TaskSubmitter
	downloader   AudioDownloader
	fortune      FortuneTeller
	downloadRoot string
	logger       *zap.Logger
}

// Deps groups the collaborators of NewHandler
type Deps struct {
	Auth         *service.AuthService
	Conversation *service.ConversationService
	ShopList     *service.ShopListService
	Sender       domain.Sender
	Pool         TaskSubmitter
	Downloader   AudioDownloader
	Fortune      FortuneTeller
	// DownloadRoot is where temporary download dirs are created; empty means os.TempDir
	DownloadRoot string
	Logger       *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(d Deps) *Handler {
	return &Handler{
		authService:  d.Auth,
		convService:  d.Conversation,
		shopService:  d.ShopList,
		sender:       d.Sender,
		pool:         d.Pool,
		downloader:   d.Downloader,
		fortune:      d.Fortune,
		downloadRoot: d.DownloadRoot,
		logger:       d.Logger,
	}
}

// RegisterCommands registers every command with its guards
func (h *Handler) RegisterCommands(reg *Registry) error {
	restricted := middleware.Restricted(h.authService, h.sender, h.logger)
	admin := middleware.AdminOnly(h.authService, h.logger)
	private := middleware.PrivateOnly(h.authService, h.sender, h.logger)

	steps := []error{
		reg.Command("start").Describe("Register with the bot").
			Use(private).Handle(h.handleStart),
		reg.Command("status").Describe("Show the access configuration").
			Use(admin, private).Handle(h.handleStatus),
		reg.Command("groceries").Describe("Manage your groceries list").
			Use(restricted).Handle(h.handleGroceries),
		reg.Command("ytaudio").Describe("Download the audio of a video").
			Use(restricted).Handle(h.handleYtAudio),
		reg.Command("shopadd").Describe("Add an item to your shop list").
			Handle(h.handleShopAdd),
		reg.Command("shoplist").Describe("Show your shop list").
			Handle(h.handleShopList),
		reg.Command("fortune").Describe("Tell a fortune").
			Handle(h.handleFortune),
		reg.Command("menu").Describe("Show a sample keyboard").
			Handle(h.handleMenu),
		reg.Command("help").Describe("List commands").
			Handle(h.helpHandler(reg)),
	}
	for _, err := range steps {
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) reply(ctx context.Context, msg domain.Message, text string) error {
	return h.sender.Send(ctx, msg.ChatID, domain.TextReply(text))
}
