package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/apperrors"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
)

// Command is the numeric admin command code.
type Command int

const (
	CmdExpireAll Command = iota
	CmdMinItems
	CmdMaxItems
	CmdMinTime // deprecated
	CmdMaxTime // deprecated
	CmdPercentages
	CmdMinPrice
	CmdMaxPrice
	CmdMinBidPrice
	CmdMaxBidPrice
	CmdMaxStack
	CmdBuyerPrice
	CmdBiddingInterval
	CmdBidsPerInterval
)

var commandNames = map[Command]string{
	CmdExpireAll:       "ahexpire",
	CmdMinItems:        "minitems",
	CmdMaxItems:        "maxitems",
	CmdMinTime:         "mintime",
	CmdMaxTime:         "maxtime",
	CmdPercentages:     "percentages",
	CmdMinPrice:        "minprice",
	CmdMaxPrice:        "maxprice",
	CmdMinBidPrice:     "minbidprice",
	CmdMaxBidPrice:     "maxbidprice",
	CmdMaxStack:        "maxstack",
	CmdBuyerPrice:      "buyerprice",
	CmdBiddingInterval: "biddinginterval",
	CmdBidsPerInterval: "bidsperinterval",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand accepts the numeric code or the command name.
func ParseCommand(raw string) (Command, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		return Command(n), nil
	}
	for c, name := range commandNames {
		if name == raw {
			return c, nil
		}
	}
	return 0, apperrors.NewInvalidRequest(fmt.Sprintf("unknown command %q", raw))
}

// qualityFamily maps the per-quality commands to their column family.
var qualityFamily = map[Command]string{
	CmdMinPrice:    model.ColMinPrice,
	CmdMaxPrice:    model.ColMaxPrice,
	CmdMinBidPrice: model.ColMinBidPrice,
	CmdMaxBidPrice: model.ColMaxBidPrice,
	CmdMaxStack:    model.ColMaxStack,
	CmdBuyerPrice:  model.ColBuyerPrice,
}

// CommandService applies admin commands: store first, then the live config.
// Values are parsed but not range checked.
type CommandService struct {
	bot      *BotContext
	repo     VenueSettingsRepo
	market   *market.Marketplace
	store    ListingStore
	activity ActivitySink
	now      func() time.Time
}

func NewCommandService(bot *BotContext, repo VenueSettingsRepo, m *market.Marketplace, store ListingStore, activity ActivitySink) *CommandService {
	if activity == nil {
		activity = nopSink{}
	}
	return &CommandService{
		bot:      bot,
		repo:     repo,
		market:   m,
		store:    store,
		activity: activity,
		now:      time.Now,
	}
}

// Execute runs one command against a venue. quality is only read by the per-quality commands.
func (s *CommandService) Execute(ctx context.Context, venue model.VenueID, cmd Command, quality model.Quality, args []string) error {
	cfg := s.bot.Config(venue)
	log := logger.Component("commands").With("venue", venue.String(), "command", cmd.String())

	var err error
	switch cmd {
	case CmdExpireAll:
		var n int
		n, err = s.expireAll(ctx, venue)
		log.Info("bot listings expired", "count", n)
	case CmdMinItems:
		err = s.setSingle(ctx, venue, model.ColMinItems, args, cfg.SetMinItems)
	case CmdMaxItems:
		err = s.setSingle(ctx, venue, model.ColMaxItems, args, func(v uint32) {
			cfg.SetMaxItems(v)
			cfg.CalculatePercents()
		})
	case CmdMinTime, CmdMaxTime:
		log.Debug("deprecated command ignored")
		return nil
	case CmdPercentages:
		err = s.setPercentages(ctx, venue, cfg, args)
	case CmdMinPrice, CmdMaxPrice, CmdMinBidPrice, CmdMaxBidPrice, CmdMaxStack, CmdBuyerPrice:
		if !quality.Valid() {
			return apperrors.NewInvalidRequest(fmt.Sprintf("quality %d not supported", quality))
		}
		col := model.QualityColumn(qualityFamily[cmd], quality)
		err = s.setSingle(ctx, venue, col, args, func(v uint32) {
			s.applyQuality(cfg, cmd, quality, v)
		})
	case CmdBiddingInterval:
		err = s.setSingle(ctx, venue, model.ColBiddingInterval, args, func(v uint32) {
			cfg.SetBiddingInterval(time.Duration(v) * time.Minute)
		})
	case CmdBidsPerInterval:
		err = s.setSingle(ctx, venue, model.ColBidsPerInterval, args, cfg.SetBidsPerInterval)
	default:
		return apperrors.NewInvalidRequest(fmt.Sprintf("unknown command %d", int(cmd)))
	}
	if err != nil {
		return err
	}

	s.activity.Log(&model.ActivityLog{
		Venue: venue.String(),
		Kind:  model.ActivityCommand,
		Actor: "admin",
		Context: map[string]interface{}{
			"command": cmd.String(),
			"quality": quality.Color(),
			"args":    args,
		},
		CreatedAt: s.now(),
	})
	return nil
}

func (s *CommandService) applyQuality(cfg *VenueConfig, cmd Command, q model.Quality, v uint32) {
	switch cmd {
	case CmdMinPrice:
		cfg.SetMinPrice(q, v)
	case CmdMaxPrice:
		cfg.SetMaxPrice(q, v)
	case CmdMinBidPrice:
		cfg.SetMinBidPrice(q, v)
	case CmdMaxBidPrice:
		cfg.SetMaxBidPrice(q, v)
	case CmdMaxStack:
		cfg.SetMaxStack(q, v)
	case CmdBuyerPrice:
		cfg.SetBuyerPrice(q, float64(v))
	}
}

func (s *CommandService) setSingle(ctx context.Context, venue model.VenueID, col string, args []string, apply func(uint32)) error {
	vals, err := parseArgs(args, 1)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateColumns(ctx, venue, map[string]uint32{col: vals[0]}); err != nil {
		return apperrors.New(apperrors.ErrStorage, "failed to persist venue settings", err)
	}
	apply(vals[0])
	return nil
}

func (s *CommandService) setPercentages(ctx context.Context, venue model.VenueID, cfg *VenueConfig, args []string) error {
	vals, err := parseArgs(args, model.BucketCount)
	if err != nil {
		return err
	}
	var pcts [model.BucketCount]uint32
	cols := make(map[string]uint32, model.BucketCount)
	for _, k := range model.AllBuckets() {
		pcts[k.Index()] = vals[k.Index()]
		cols[model.PercentColumn(k)] = vals[k.Index()]
	}
	if err := s.repo.UpdateColumns(ctx, venue, cols); err != nil {
		return apperrors.New(apperrors.ErrStorage, "failed to persist venue settings", err)
	}
	cfg.SetPercentages(pcts)
	return nil
}

// expireAll moves every bot-owned listing's expiry to now; the next tick settles them.
func (s *CommandService) expireAll(ctx context.Context, venue model.VenueID) (int, error) {
	now := s.now()
	owner := s.bot.Identity().Character
	house := s.market.House(venue)

	var ids []uint64
	for _, l := range house.List() {
		if l.Owner != owner {
			continue
		}
		if house.SetExpiry(l.ID, now) {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.store.Expire(ctx, ids, now); err != nil {
		return 0, apperrors.New(apperrors.ErrStorage, "failed to persist expiry", err)
	}
	return len(ids), nil
}

// parseArgs reads want unsigned values, accepting 0x and 0 prefixes.
func parseArgs(args []string, want int) ([]uint32, error) {
	if len(args) < want {
		return nil, apperrors.NewInvalidRequest(fmt.Sprintf("expected %d arguments, got %d", want, len(args)))
	}
	out := make([]uint32, want)
	for i := 0; i < want; i++ {
		v, err := strconv.ParseUint(strings.TrimSpace(args[i]), 0, 32)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrInvalidRequest,
				fmt.Sprintf("argument %d (%q) is not a number", i+1, args[i]), err)
		}
		out[i] = uint32(v)
	}
	return out, nil
}
