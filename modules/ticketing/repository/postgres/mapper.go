package postgres

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gatepass-network/boxoffice/common"
	"github.com/gatepass-network/boxoffice/core/types"
	"github.com/gatepass-network/boxoffice/modules/ticketing/internal/entity"
	"github.com/gaze-network/uint128"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
)

// Protocol quantities are full-range uint64/uint128 and cannot live in
// BIGINT columns, so they are stored as NUMERIC and converted here.

func numericFromUint128(src uint128.Uint128) pgtype.Numeric {
	return pgtype.Numeric{Int: src.Big(), Valid: true}
}

func uint128FromNumeric(src pgtype.Numeric) (uint128.Uint128, error) {
	if !src.Valid {
		return uint128.Zero, nil
	}
	bytes, err := src.MarshalJSON()
	if err != nil {
		return uint128.Zero, errors.WithStack(err)
	}
	result, err := uint128.FromString(string(bytes))
	if err != nil {
		return uint128.Zero, errors.WithStack(err)
	}
	return result, nil
}

func numericFromUint64(src uint64) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).SetUint64(src), Valid: true}
}

func uint64FromNumeric(src pgtype.Numeric) (uint64, error) {
	value, err := uint128FromNumeric(src)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if !value.IsUint64() {
		return 0, errors.Newf("numeric value %s overflows uint64", value.String())
	}
	return value.Uint64(), nil
}

func timestampFromTime(src time.Time) pgtype.Timestamp {
	return pgtype.Timestamp{Time: src.UTC(), Valid: !src.IsZero()}
}

func timeFromTimestamp(src pgtype.Timestamp) time.Time {
	if !src.Valid {
		return time.Time{}
	}
	return src.Time.UTC()
}

type journalEntryModel struct {
	Sequence       int64
	Kind           string
	Caller         string
	Nonce          int64
	Payment        pgtype.Numeric
	RawPayload     []byte
	ParsedPayload  []byte
	Signature      []byte
	Status         string
	Reason         string
	Result         []byte
	EventsHash     string
	CumulativeHash string
	Timestamp      pgtype.Timestamp
}

func mapJournalEntryModelToType(src journalEntryModel) (*entity.JournalEntry, error) {
	payment, err := uint64FromNumeric(src.Payment)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse payment")
	}
	eventsHash, err := common.NewHashFromStr(src.EventsHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse events hash")
	}
	cumulativeHash, err := common.NewHashFromStr(src.CumulativeHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse cumulative hash")
	}
	return &entity.JournalEntry{
		Sequence:       uint64(src.Sequence),
		Kind:           types.OperationKind(src.Kind),
		Caller:         common.Address(src.Caller),
		Nonce:          uint64(src.Nonce),
		Payment:        payment,
		RawPayload:     src.RawPayload,
		ParsedPayload:  src.ParsedPayload,
		Signature:      src.Signature,
		Status:         types.ReceiptStatus(src.Status),
		Reason:         src.Reason,
		Result:         src.Result,
		EventsHash:     eventsHash,
		CumulativeHash: cumulativeHash,
		Timestamp:      timeFromTimestamp(src.Timestamp),
	}, nil
}

type protocolEventModel struct {
	Sequence   int64
	Index      int32
	Kind       string
	EventID    int64
	TierID     int32
	Address    string
	Amount     pgtype.Numeric
	Price      pgtype.Numeric
	Serial     pgtype.Numeric
	Percentage pgtype.Numeric
	Timestamp  pgtype.Timestamp
}

func mapProtocolEventModelToType(src protocolEventModel) (*entity.ProtocolEvent, error) {
	amount, err := uint128FromNumeric(src.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse amount")
	}
	price, err := uint64FromNumeric(src.Price)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse price")
	}
	serial, err := uint64FromNumeric(src.Serial)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse serial")
	}
	percentage, err := uint64FromNumeric(src.Percentage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse percentage")
	}
	return &entity.ProtocolEvent{
		Sequence:   uint64(src.Sequence),
		Index:      uint32(src.Index),
		Kind:       entity.EventKind(src.Kind),
		EventID:    uint64(src.EventID),
		TierID:     uint32(src.TierID),
		Address:    common.Address(src.Address),
		Amount:     amount,
		Price:      price,
		Serial:     serial,
		Percentage: percentage,
		Timestamp:  timeFromTimestamp(src.Timestamp),
	}, nil
}

// tierConfigModel is the JSONB form of a declared tier. Intervals are whole
// seconds, matching the wire payload.
type tierConfigModel struct {
	Name                string `json:"name"`
	Symbol              string `json:"symbol"`
	TotalTickets        uint64 `json:"totalTickets"`
	BasePrice           uint64 `json:"basePrice"`
	InitialPrice        uint64 `json:"initialPrice"`
	StartTime           int64  `json:"startTime"`
	EndTime             int64  `json:"endTime"`
	PriceUpdateInterval int64  `json:"priceUpdateInterval"`
	DecayPercentage     uint64 `json:"decayPercentage"`
	SalesTimeInterval   int64  `json:"salesTimeInterval"`
}

func marshalTierConfigs(src []entity.TierConfig) ([]byte, error) {
	models := lo.Map(src, func(config entity.TierConfig, _ int) tierConfigModel {
		return tierConfigModel{
			Name:                config.Name,
			Symbol:              config.Symbol,
			TotalTickets:        config.TotalTickets,
			BasePrice:           config.BasePrice,
			InitialPrice:        config.InitialPrice,
			StartTime:           config.StartTime.Unix(),
			EndTime:             config.EndTime.Unix(),
			PriceUpdateInterval: int64(config.PriceUpdateInterval / time.Second),
			DecayPercentage:     config.DecayPercentage,
			SalesTimeInterval:   int64(config.SalesTimeInterval / time.Second),
		}
	})
	raw, err := json.Marshal(models)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal tier configs")
	}
	return raw, nil
}

func unmarshalTierConfigs(raw []byte) ([]entity.TierConfig, error) {
	var models []tierConfigModel
	if err := json.Unmarshal(raw, &models); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal tier configs")
	}
	return lo.Map(models, func(model tierConfigModel, _ int) entity.TierConfig {
		return entity.TierConfig{
			Name:                model.Name,
			Symbol:              model.Symbol,
			TotalTickets:        model.TotalTickets,
			BasePrice:           model.BasePrice,
			InitialPrice:        model.InitialPrice,
			StartTime:           time.Unix(model.StartTime, 0).UTC(),
			EndTime:             time.Unix(model.EndTime, 0).UTC(),
			PriceUpdateInterval: time.Duration(model.PriceUpdateInterval) * time.Second,
			DecayPercentage:     model.DecayPercentage,
			SalesTimeInterval:   time.Duration(model.SalesTimeInterval) * time.Second,
		}
	}), nil
}

type eventModel struct {
	EventID      int64
	Organizer    string
	Name         string
	Venue        string
	MetadataURI  string
	TierConfigs  []byte
	RegisteredAt pgtype.Timestamp
	LaunchedAt   pgtype.Timestamp
}

func mapEventModelToType(src eventModel) (*entity.Event, error) {
	tierConfigs, err := unmarshalTierConfigs(src.TierConfigs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &entity.Event{
		EventID:      uint64(src.EventID),
		Organizer:    common.Address(src.Organizer),
		Name:         src.Name,
		Venue:        src.Venue,
		MetadataURI:  src.MetadataURI,
		TierConfigs:  tierConfigs,
		RegisteredAt: timeFromTimestamp(src.RegisteredAt),
		LaunchedAt:   timeFromTimestamp(src.LaunchedAt),
	}, nil
}

type tierModel struct {
	EventID             int64
	TierID              int32
	Name                string
	Symbol              string
	TotalTickets        pgtype.Numeric
	TicketsSold         pgtype.Numeric
	BasePrice           pgtype.Numeric
	InitialPrice        pgtype.Numeric
	CurrentPrice        pgtype.Numeric
	TotalRevenue        pgtype.Numeric
	StartTime           pgtype.Timestamp
	EndTime             pgtype.Timestamp
	LastPriceUpdate     pgtype.Timestamp
	PriceUpdateInterval int64
	DecayPercentage     pgtype.Numeric
	SalesTimeInterval   int64
	DiscountPercentage  pgtype.Numeric
	NextSerial          pgtype.Numeric
	MetadataBaseURI     string
	LaunchedAt          pgtype.Timestamp
}

func mapTierModelToType(src tierModel) (*entity.Tier, error) {
	totalTickets, err := uint64FromNumeric(src.TotalTickets)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse total tickets")
	}
	ticketsSold, err := uint64FromNumeric(src.TicketsSold)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse tickets sold")
	}
	basePrice, err := uint64FromNumeric(src.BasePrice)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse base price")
	}
	initialPrice, err := uint64FromNumeric(src.InitialPrice)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse initial price")
	}
	currentPrice, err := uint64FromNumeric(src.CurrentPrice)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse current price")
	}
	totalRevenue, err := uint128FromNumeric(src.TotalRevenue)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse total revenue")
	}
	decayPercentage, err := uint64FromNumeric(src.DecayPercentage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse decay percentage")
	}
	discountPercentage, err := uint64FromNumeric(src.DiscountPercentage)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse discount percentage")
	}
	nextSerial, err := uint64FromNumeric(src.NextSerial)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse next serial")
	}
	return &entity.Tier{
		EventID:             uint64(src.EventID),
		TierID:              uint32(src.TierID),
		Name:                src.Name,
		Symbol:              src.Symbol,
		TotalTickets:        totalTickets,
		TicketsSold:         ticketsSold,
		BasePrice:           basePrice,
		InitialPrice:        initialPrice,
		CurrentPrice:        currentPrice,
		TotalRevenue:        totalRevenue,
		StartTime:           timeFromTimestamp(src.StartTime),
		EndTime:             timeFromTimestamp(src.EndTime),
		LastPriceUpdate:     timeFromTimestamp(src.LastPriceUpdate),
		PriceUpdateInterval: time.Duration(src.PriceUpdateInterval) * time.Second,
		DecayPercentage:     decayPercentage,
		SalesTimeInterval:   time.Duration(src.SalesTimeInterval) * time.Second,
		DiscountPercentage:  discountPercentage,
		NextSerial:          nextSerial,
		MetadataBaseURI:     src.MetadataBaseURI,
		LaunchedAt:          timeFromTimestamp(src.LaunchedAt),
	}, nil
}

type ticketModel struct {
	EventID      int64
	TierID       int32
	Serial       pgtype.Numeric
	Owner        string
	PricePaid    pgtype.Numeric
	MintSequence int64
	MintedAt     pgtype.Timestamp
}

func mapTicketModelToType(src ticketModel) (*entity.Ticket, error) {
	serial, err := uint64FromNumeric(src.Serial)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse serial")
	}
	pricePaid, err := uint64FromNumeric(src.PricePaid)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse price paid")
	}
	return &entity.Ticket{
		EventID:      uint64(src.EventID),
		TierID:       uint32(src.TierID),
		Serial:       serial,
		Owner:        common.Address(src.Owner),
		PricePaid:    pricePaid,
		MintSequence: uint64(src.MintSequence),
		MintedAt:     timeFromTimestamp(src.MintedAt),
	}, nil
}

type ticketBalanceModel struct {
	EventID int64
	TierID  int32
	Owner   string
	Balance pgtype.Numeric
}

func mapTicketBalanceModelToType(src ticketBalanceModel) (*entity.TicketBalance, error) {
	balance, err := uint64FromNumeric(src.Balance)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse balance")
	}
	return &entity.TicketBalance{
		EventID: uint64(src.EventID),
		TierID:  uint32(src.TierID),
		Owner:   common.Address(src.Owner),
		Balance: balance,
	}, nil
}

type fundsAccountModel struct {
	Address string
	Balance pgtype.Numeric
	Nonce   int64
}

func mapFundsAccountModelToType(src fundsAccountModel) (*entity.FundsAccount, error) {
	balance, err := uint128FromNumeric(src.Balance)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse balance")
	}
	return &entity.FundsAccount{
		Address: common.Address(src.Address),
		Balance: balance,
		Nonce:   uint64(src.Nonce),
	}, nil
}

type treasuryModel struct {
	Balance        pgtype.Numeric
	FeesCollected  pgtype.Numeric
	TotalDeposited pgtype.Numeric
	TotalPaidOut   pgtype.Numeric
}

func mapTreasuryModelToType(src treasuryModel) (*entity.Treasury, error) {
	balance, err := uint128FromNumeric(src.Balance)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse balance")
	}
	feesCollected, err := uint128FromNumeric(src.FeesCollected)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse fees collected")
	}
	totalDeposited, err := uint128FromNumeric(src.TotalDeposited)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse total deposited")
	}
	totalPaidOut, err := uint128FromNumeric(src.TotalPaidOut)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse total paid out")
	}
	return &entity.Treasury{
		Balance:        balance,
		FeesCollected:  feesCollected,
		TotalDeposited: totalDeposited,
		TotalPaidOut:   totalPaidOut,
	}, nil
}

type payoutModel struct {
	Sequence  int64
	Index     int32
	Recipient string
	Amount    pgtype.Numeric
	CreatedAt pgtype.Timestamp
}

func mapPayoutModelToType(src payoutModel) (*entity.Payout, error) {
	amount, err := uint128FromNumeric(src.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse amount")
	}
	return &entity.Payout{
		Sequence:  uint64(src.Sequence),
		Index:     uint32(src.Index),
		Recipient: common.Address(src.Recipient),
		Amount:    amount,
		CreatedAt: timeFromTimestamp(src.CreatedAt),
	}, nil
}
