package httphandler

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/mintvault/series-ledger/common/errs"
	"github.com/mintvault/series-ledger/modules/series/internal/entity"
	"github.com/mintvault/series-ledger/modules/series/internal/evaluator"
	"github.com/samber/lo"
)

// executeOperationRequest is the envelope for one ledger operation. Kind
// selects the operation; only the fields that kind uses are read.
type executeOperationRequest struct {
	Kind string `json:"kind"`

	Issuer        string `json:"issuer"`
	AssetId       string `json:"assetId"`
	AnchorAssetId string `json:"anchorAssetId"`
	SeriesAssetId string `json:"seriesAssetId"`

	RoyaltyFeeRate int64   `json:"royaltyFeeRate"`
	Beneficiary    string  `json:"beneficiary"`
	Manager        *string `json:"manager"`

	Subdivisions                  int64 `json:"subdivisions"`
	MinPricePerSubdivision        int64 `json:"minPricePerSubdivision"`
	RequiredBackingPerSubdivision int64 `json:"requiredBackingPerSubdivision"`

	Quantity    int64   `json:"quantity"`
	Recipient   string  `json:"recipient"`
	Provisioner *string `json:"provisioner"`
	Bearer      string  `json:"bearer"`
	From        string  `json:"from"`
	To          string  `json:"to"`
}

func (r *executeOperationRequest) Operation() (evaluator.Operation, error) {
	toAccountPtr := func(s *string) *entity.AccountId {
		if s == nil {
			return nil
		}
		return lo.ToPtr(entity.AccountId(*s))
	}
	switch r.Kind {
	case "series_create":
		return evaluator.SeriesCreateOperation{
			Issuer:         entity.AccountId(r.Issuer),
			AnchorAssetId:  entity.AssetId(r.AnchorAssetId),
			RoyaltyFeeRate: r.RoyaltyFeeRate,
			Beneficiary:    entity.AccountId(r.Beneficiary),
			Manager:        toAccountPtr(r.Manager),
		}, nil
	case "mint":
		return evaluator.MintOperation{
			Issuer:                        entity.AccountId(r.Issuer),
			AssetId:                       entity.AssetId(r.AssetId),
			Subdivisions:                  r.Subdivisions,
			MinPricePerSubdivision:        r.MinPricePerSubdivision,
			RequiredBackingPerSubdivision: r.RequiredBackingPerSubdivision,
		}, nil
	case "primary_transfer":
		return evaluator.PrimaryTransferOperation{
			AssetId:     entity.AssetId(r.AssetId),
			Quantity:    r.Quantity,
			Recipient:   entity.AccountId(r.Recipient),
			Manager:     entity.AccountId(lo.FromPtr(r.Manager)),
			Provisioner: toAccountPtr(r.Provisioner),
		}, nil
	case "return":
		return evaluator.ReturnOperation{
			AssetId:  entity.AssetId(r.AssetId),
			Quantity: r.Quantity,
			Bearer:   entity.AccountId(r.Bearer),
		}, nil
	case "burn":
		return evaluator.BurnOperation{
			AssetId:  entity.AssetId(r.AssetId),
			Quantity: r.Quantity,
			Issuer:   entity.AccountId(r.Issuer),
		}, nil
	case "royalty_claim_transfer":
		return evaluator.RoyaltyClaimTransferOperation{
			SeriesAssetId: entity.AssetId(r.SeriesAssetId),
			From:          entity.AccountId(r.From),
			To:            entity.AccountId(r.To),
			Quantity:      r.Quantity,
		}, nil
	case "transfer":
		return evaluator.TransferOperation{
			AssetId:  entity.AssetId(r.AssetId),
			Quantity: r.Quantity,
			From:     entity.AccountId(r.From),
			To:       entity.AccountId(r.To),
		}, nil
	default:
		return nil, errs.NewPublicError("unknown operation kind \"" + r.Kind + "\"")
	}
}

type executeOperationResult struct {
	RecordId         entity.AssetId `json:"recordId"`
	BackingCollected int64          `json:"backingCollected"`
	BackingRedeemed  int64          `json:"backingRedeemed"`
	RoyaltyPaid      int64          `json:"royaltyPaid"`
}

type executeOperationResponse = HttpResponse[executeOperationResult]

func (h *HttpHandler) ExecuteOperation(ctx *fiber.Ctx) (err error) {
	var req executeOperationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errs.NewPublicError("invalid request body")
	}
	op, err := req.Operation()
	if err != nil {
		return errors.WithStack(err)
	}

	receipt, err := h.processor.Execute(ctx.UserContext(), op)
	if err != nil {
		if e := new(errs.PublicError); errors.As(err, &e) {
			return errors.WithStack(err)
		}
		return errors.Wrap(err, "error during Execute")
	}

	resp := executeOperationResponse{
		Result: &executeOperationResult{
			RecordId:         receipt.RecordId,
			BackingCollected: receipt.BackingCollected,
			BackingRedeemed:  receipt.BackingRedeemed,
			RoyaltyPaid:      receipt.RoyaltyPaid,
		},
	}
	return errors.WithStack(ctx.JSON(resp))
}
