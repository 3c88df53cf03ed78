package application

import (
	"context"
	"fmt"
	"math/big"

	log "github.com/sirupsen/logrus"

	"github.com/openswap-network/maker-daemon/internal/core/ports"
	"github.com/openswap-network/maker-daemon/pkg/stats"
)

// defaultMinAllowance is the allowance below which a token is considered
// unapproved. Approvals grant the maximum, so anything above half the uint256
// range means an earlier approval is still in force.
var defaultMinAllowance = new(big.Int).Lsh(big.NewInt(1), 255)

// ApprovalService grants the swap contract spending allowances for the
// tokens this maker trades. Transactions are submitted strictly one at a
// time, each awaited until mined, so the wallet nonce never races itself.
type ApprovalService interface {
	// EnsureApprovals approves every token whose allowance is too low. The
	// first failure halts the sequence and is returned; remaining tokens
	// are left unapproved.
	EnsureApprovals(ctx context.Context, tokens []string) error
}

type approvalService struct {
	chain        ports.TokenApprover
	balances     ports.BalanceReader
	owner        string
	minAllowance *big.Int
}

func NewApprovalService(
	chain ports.TokenApprover,
	balances ports.BalanceReader,
	owner string,
	minAllowance *big.Int,
) ApprovalService {
	if minAllowance == nil {
		minAllowance = defaultMinAllowance
	}
	return &approvalService{
		chain:        chain,
		balances:     balances,
		owner:        owner,
		minAllowance: minAllowance,
	}
}

func (s *approvalService) EnsureApprovals(
	ctx context.Context, tokens []string,
) error {
	native, err := s.balances.NativeBalance(ctx, s.owner)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBalanceLookupFailure, err)
	}
	if native.Sign() == 0 {
		return ErrInsufficientGasBalance
	}

	for _, token := range tokens {
		// Allowance snapshots go stale as soon as anything is mined, so
		// they are read per token inside the sequence, never cached.
		allowance, err := s.chain.Allowance(ctx, token, s.owner)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrBalanceLookupFailure, err)
		}
		if allowance.Cmp(s.minAllowance) >= 0 {
			log.WithField("token", token).Debug("token already approved")
			continue
		}

		tx, err := s.chain.Approve(ctx, token)
		if err != nil {
			return fmt.Errorf("%w: %s: %s", ErrApprovalFailure, token, err)
		}
		stats.ApprovalsSubmitted.Inc()
		log.WithFields(log.Fields{
			"token": token,
			"tx":    tx.Hash(),
		}).Info("approval submitted, awaiting confirmation")

		if err := tx.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrApprovalFailure, token, err)
		}
		log.WithField("token", token).Info("approval confirmed")
	}

	return nil
}
