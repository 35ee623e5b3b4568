package market_test

import (
	"testing"

	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/market"
	"github.com/deadcat-network/deadcat/common/txutils"
	"github.com/stretchr/testify/require"
)

func TestBuildCreation(t *testing.T) {
	m := compileMarket(t)
	dormant, err := m.ScriptPubKey(market.StateDormant)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		tx, err := m.BuildCreation(creationParams(t, 300, 400))
		require.NoError(t, err)
		require.Len(t, tx.Pset.Inputs, 2)
		require.Len(t, tx.Pset.Outputs, 4)
		require.Empty(t, tx.CovenantInputs)

		assets := []common.AssetID{params.YesAsset, params.NoAsset}
		tokens := []common.AssetID{params.YesReissuanceToken, params.NoReissuanceToken}
		for i := 0; i < 2; i++ {
			in := tx.Pset.Inputs[i]
			require.Equal(t, uint64(1), in.IssuanceInflationKeys)
			require.Zero(t, in.IssuanceValue)
			require.False(t, in.HasReissuance())
			require.Equal(t, assets[i][:], in.GetIssuanceAssetHash())
			require.Equal(t, tokens[i][:], in.GetIssuanceInflationKeysHash())

			out := tx.Pset.Outputs[i]
			require.Equal(t, dormant, out.Script)
			require.Equal(t, uint64(1), out.Value)
			require.True(t, out.NeedsBlinding())
			require.Equal(t, tokenBlindingKey, out.BlindingPubkey)
			require.Zero(t, out.BlinderIndex)
		}
		require.Empty(t, tx.Pset.Outputs[2].Script)
		require.Equal(t, feeAmount, tx.Pset.Outputs[2].Value)
		require.Equal(t, uint64(200), tx.Pset.Outputs[3].Value)
		require.False(t, tx.Pset.Outputs[2].NeedsBlinding())
	})

	t.Run("invalid", func(t *testing.T) {
		tx, err := m.BuildCreation(creationParams(t, 200, 299))
		require.ErrorIs(t, err, txutils.ErrInsufficientFee)
		require.Nil(t, tx)

		p := creationParams(t, 300, 400)
		p.ChangeScript = nil
		tx, err = m.BuildCreation(p)
		require.ErrorIs(t, err, txutils.ErrMissingChangeDestination)
		require.Nil(t, tx)

		p = creationParams(t, 300, 400)
		p.YesDefiningUtxo, p.NoDefiningUtxo = p.NoDefiningUtxo, p.YesDefiningUtxo
		tx, err = m.BuildCreation(p)
		require.ErrorIs(t, err, txutils.ErrIssuedAssetMismatch)
		require.Nil(t, tx)

		p = creationParams(t, 300, 400)
		p.NoDefiningUtxo = newUtxo(t, lbtc, 400, userScript)
		_, err = m.BuildCreation(p)
		require.ErrorIs(t, err, txutils.ErrIssuedAssetMismatch)

		p = creationParams(t, 300, 400)
		p.TokenBlindingKey = nil
		_, err = m.BuildCreation(p)
		require.ErrorIs(t, err, txutils.ErrInvalidBlindingKey)

		p = creationParams(t, 300, 400)
		p.TokenBlindingKey = tokenBlindingKey[1:]
		_, err = m.BuildCreation(p)
		require.ErrorIs(t, err, txutils.ErrInvalidBlindingKey)
	})
}

func creationParams(t *testing.T, yesValue, noValue uint64) market.CreationParams {
	return market.CreationParams{
		YesDefiningUtxo:  utxoAt(t, yesDefining, lbtc, yesValue, userScript),
		NoDefiningUtxo:   utxoAt(t, noDefining, lbtc, noValue, userScript),
		FeeAmount:        feeAmount,
		ChangeScript:     changeScript,
		TokenBlindingKey: tokenBlindingKey,
	}
}

func TestCreationToInitialIssuance(t *testing.T) {
	m := compileMarket(t)

	creation, err := m.BuildCreation(creationParams(t, 300, 400))
	require.NoError(t, err)

	p := issuanceParams(t, m, market.StateDormant, 2000000)
	p.YesReissuanceUtxo = tokenUtxo(t, creation, 0, params.YesReissuanceToken, [32]byte{})
	p.NoReissuanceUtxo = tokenUtxo(t, creation, 1, params.NoReissuanceToken, [32]byte{})

	// an unblinded token would turn the reissuance into a new issuance
	tx, err := m.BuildInitialIssuance(p)
	require.ErrorIs(t, err, txutils.ErrUnblindedReissuanceToken)
	require.Nil(t, tx)

	p.YesReissuanceUtxo = tokenUtxo(t, creation, 0, params.YesReissuanceToken, [32]byte{0x0a})
	p.NoReissuanceUtxo = tokenUtxo(t, creation, 1, params.NoReissuanceToken, [32]byte{0x0b})
	tx, err = m.BuildInitialIssuance(p)
	require.NoError(t, err)

	assets := []common.AssetID{params.YesAsset, params.NoAsset}
	for i := 0; i < 2; i++ {
		in := tx.Pset.Inputs[i]
		require.True(t, in.HasReissuance())
		require.Equal(t, assets[i][:], in.GetIssuanceAssetHash())
		require.True(t, tx.Pset.Outputs[i].NeedsBlinding())
	}
	abf := [32]byte{0x0a}
	require.Equal(t, abf[:], tx.Pset.Inputs[0].IssuanceBlindingNonce)
	finalize(t, m, tx)
}

func issuanceParams(t *testing.T, m *market.CompiledMarket, state market.MarketState, collateral uint64) market.IssuanceParams {
	return market.IssuanceParams{
		YesReissuanceUtxo:      covenantUtxo(t, m, params.YesReissuanceToken, 1, state),
		NoReissuanceUtxo:       covenantUtxo(t, m, params.NoReissuanceToken, 1, state),
		CollateralUtxo:         newUtxo(t, lbtc, collateral, userScript),
		Pairs:                  10,
		YesEntropy:             yesEntropy,
		NoEntropy:              noEntropy,
		TokenScript:            userScript,
		CollateralChangeScript: changeScript,
		Fee:                    fee(t, 1000),
		TokenBlindingKey:       tokenBlindingKey,
	}
}

func TestBuildInitialIssuance(t *testing.T) {
	m := compileMarket(t)
	unresolved, err := m.ScriptPubKey(market.StateUnresolved)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		tx, err := m.BuildInitialIssuance(issuanceParams(t, m, market.StateDormant, 2000000))
		require.NoError(t, err)
		require.Equal(t, market.StateDormant, tx.From)
		require.Equal(t, market.StateUnresolved, tx.To)
		require.Equal(t, []int{0, 1}, tx.CovenantInputs)
		require.Len(t, tx.Pset.Inputs, 4)
		// no collateral change
		require.Len(t, tx.Pset.Outputs, 7)

		require.Equal(t, uint64(10), tx.Pset.Inputs[0].IssuanceValue)
		require.Equal(t, uint64(10), tx.Pset.Inputs[1].IssuanceValue)
		require.Equal(t, uint64(2000000), tx.Pset.Outputs[2].Value)
		for i := 0; i < 3; i++ {
			require.Equal(t, unresolved, tx.Pset.Outputs[i].Script)
		}
		require.Equal(t, uint64(10), tx.Pset.Outputs[3].Value)
		require.Equal(t, uint64(10), tx.Pset.Outputs[4].Value)
		require.Equal(t, feeAmount, tx.Pset.Outputs[5].Value)
		for i := 0; i < 2; i++ {
			require.Equal(t, tokenBlindingKey, tx.Pset.Outputs[i].BlindingPubkey)
			require.Equal(t, uint32(3), tx.Pset.Outputs[i].BlinderIndex)
		}
		require.False(t, tx.Pset.Outputs[2].NeedsBlinding())

		finalize(t, m, tx)
	})

	t.Run("collateral change", func(t *testing.T) {
		tx, err := m.BuildInitialIssuance(issuanceParams(t, m, market.StateDormant, 2500000))
		require.NoError(t, err)
		require.Len(t, tx.Pset.Outputs, 8)
		require.Equal(t, uint64(500000), tx.Pset.Outputs[6].Value)
		require.Equal(t, changeScript, tx.Pset.Outputs[6].Script)
	})

	t.Run("invalid", func(t *testing.T) {
		tx, err := m.BuildInitialIssuance(issuanceParams(t, m, market.StateDormant, 1999999))
		require.ErrorIs(t, err, market.ErrInsufficientCollateral)
		require.Nil(t, tx)

		p := issuanceParams(t, m, market.StateDormant, 2000000)
		p.Pairs = 0
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, market.ErrZeroPairs)

		p = issuanceParams(t, m, market.StateDormant, 2000000)
		p.Pairs = 1 << 62
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, market.ErrCollateralOverflow)

		p = issuanceParams(t, m, market.StateUnresolved, 2000000)
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, txutils.ErrScriptMismatch)

		p = issuanceParams(t, m, market.StateDormant, 2000000)
		p.YesReissuanceUtxo = nil
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, market.ErrMissingReissuanceUtxos)

		p = issuanceParams(t, m, market.StateDormant, 2000000)
		p.Fee = fee(t, feeAmount-1)
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, txutils.ErrInsufficientFee)

		p = issuanceParams(t, m, market.StateDormant, 2000001)
		p.CollateralChangeScript = nil
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, txutils.ErrMissingChangeDestination)

		p = issuanceParams(t, m, market.StateDormant, 2000000)
		p.YesEntropy, p.NoEntropy = p.NoEntropy, p.YesEntropy
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, txutils.ErrIssuedAssetMismatch)

		p = issuanceParams(t, m, market.StateDormant, 2000000)
		p.NoReissuanceUtxo.AssetBlindingFactor = [32]byte{}
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, txutils.ErrUnblindedReissuanceToken)

		p = issuanceParams(t, m, market.StateDormant, 2000000)
		p.TokenBlindingKey = nil
		_, err = m.BuildInitialIssuance(p)
		require.ErrorIs(t, err, txutils.ErrInvalidBlindingKey)
	})
}

func TestBuildSubsequentIssuance(t *testing.T) {
	m := compileMarket(t)

	p := issuanceParams(t, m, market.StateUnresolved, 2000000)
	p.CovenantCollateralUtxo = covenantUtxo(t, m, lbtc, 4000000, market.StateUnresolved)

	tx, err := m.BuildSubsequentIssuance(p)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2}, tx.CovenantInputs)
	require.Len(t, tx.Pset.Inputs, 5)
	require.Equal(t, uint64(6000000), tx.Pset.Outputs[2].Value)
	require.Equal(t, uint32(4), tx.Pset.Outputs[0].BlinderIndex)
	finalize(t, m, tx)

	p.CovenantCollateralUtxo = nil
	_, err = m.BuildSubsequentIssuance(p)
	require.ErrorIs(t, err, txutils.ErrMissingUtxo)
}

func TestBuildResolution(t *testing.T) {
	m := compileMarket(t)
	resolvedNo, err := m.ScriptPubKey(market.StateResolvedNo)
	require.NoError(t, err)

	sig, err := market.SignOutcome(oracleKey, m.MarketId(), market.SideNo)
	require.NoError(t, err)

	p := market.ResolutionParams{
		YesReissuanceUtxo:      covenantUtxo(t, m, params.YesReissuanceToken, 1, market.StateUnresolved),
		NoReissuanceUtxo:       covenantUtxo(t, m, params.NoReissuanceToken, 1, market.StateUnresolved),
		CovenantCollateralUtxo: covenantUtxo(t, m, lbtc, 2000000, market.StateUnresolved),
		Outcome:                market.SideNo,
		OracleSignature:        sig,
		Fee:                    fee(t, feeAmount),
		TokenBlindingKey:       tokenBlindingKey,
	}

	tx, err := m.BuildResolution(p)
	require.NoError(t, err)
	require.Equal(t, market.StateResolvedNo, tx.To)
	require.Len(t, tx.Pset.Outputs, 4)
	for i := 0; i < 3; i++ {
		require.Equal(t, resolvedNo, tx.Pset.Outputs[i].Script)
	}
	require.Equal(t, uint64(2000000), tx.Pset.Outputs[2].Value)
	require.True(t, tx.Pset.Outputs[0].NeedsBlinding())
	require.True(t, tx.Pset.Outputs[1].NeedsBlinding())
	finalize(t, m, tx)

	p.TokenBlindingKey = nil
	_, err = m.BuildResolution(p)
	require.ErrorIs(t, err, txutils.ErrInvalidBlindingKey)

	p.TokenBlindingKey = tokenBlindingKey
	p.Outcome = market.SideYes
	_, err = m.BuildResolution(p)
	require.ErrorIs(t, err, market.ErrInvalidOracleSignature)
}

func cancellationParams(t *testing.T, m *market.CompiledMarket, locked uint64) market.CancellationParams {
	return market.CancellationParams{
		CovenantCollateralUtxo: covenantUtxo(t, m, lbtc, locked, market.StateUnresolved),
		YesTokenUtxo:           newUtxo(t, params.YesAsset, 4, userScript),
		NoTokenUtxo:            newUtxo(t, params.NoAsset, 4, userScript),
		PairsBurned:            4,
		RefundScript:           userScript,
		TokenChangeScript:      changeScript,
		Fee:                    fee(t, feeAmount),
		TokenBlindingKey:       tokenBlindingKey,
	}
}

func TestBuildCancellation(t *testing.T) {
	m := compileMarket(t)
	unresolved, err := m.ScriptPubKey(market.StateUnresolved)
	require.NoError(t, err)
	dormant, err := m.ScriptPubKey(market.StateDormant)
	require.NoError(t, err)

	t.Run("partial", func(t *testing.T) {
		tx, err := m.BuildCancellation(cancellationParams(t, m, 2000000))
		require.NoError(t, err)
		require.Equal(t, market.StateUnresolved, tx.To)
		require.False(t, tx.Path.Full)
		require.Len(t, tx.Pset.Outputs, 5)
		require.Equal(t, unresolved, tx.Pset.Outputs[0].Script)
		require.Equal(t, uint64(1200000), tx.Pset.Outputs[0].Value)
		require.Empty(t, tx.Pset.Outputs[1].Script)
		require.Empty(t, tx.Pset.Outputs[2].Script)
		require.Equal(t, uint64(800000), tx.Pset.Outputs[3].Value)
		finalize(t, m, tx)
	})

	t.Run("full", func(t *testing.T) {
		p := cancellationParams(t, m, 800000)
		tx, err := m.BuildCancellation(p)
		require.ErrorIs(t, err, market.ErrMissingReissuanceUtxos)
		require.Nil(t, tx)

		p.YesReissuanceUtxo = covenantUtxo(t, m, params.YesReissuanceToken, 1, market.StateUnresolved)
		p.NoReissuanceUtxo = covenantUtxo(t, m, params.NoReissuanceToken, 1, market.StateUnresolved)
		tx, err = m.BuildCancellation(p)
		require.NoError(t, err)
		require.True(t, tx.Path.Full)
		require.Equal(t, market.StateDormant, tx.To)
		require.Equal(t, []int{2, 0, 1}, tx.CovenantInputs)
		require.Len(t, tx.Pset.Inputs, 6)
		require.Len(t, tx.Pset.Outputs, 6)
		require.Equal(t, dormant, tx.Pset.Outputs[0].Script)
		require.Equal(t, dormant, tx.Pset.Outputs[1].Script)
		require.Equal(t, uint32(5), tx.Pset.Outputs[0].BlinderIndex)
		require.Equal(t, tokenBlindingKey, tx.Pset.Outputs[1].BlindingPubkey)
		require.Empty(t, tx.Pset.Outputs[2].Script)
		require.Empty(t, tx.Pset.Outputs[3].Script)
		require.Equal(t, uint64(800000), tx.Pset.Outputs[4].Value)
		require.Equal(t, feeAmount, tx.Pset.Outputs[5].Value)
		finalize(t, m, tx)

		p.Fee = fee(t, feeAmount+1)
		tx, err = m.BuildCancellation(p)
		require.NoError(t, err)
		require.Len(t, tx.Pset.Outputs, 7)
	})

	t.Run("invalid", func(t *testing.T) {
		p := cancellationParams(t, m, 700000)
		_, err := m.BuildCancellation(p)
		require.ErrorIs(t, err, market.ErrInsufficientCollateral)

		p = cancellationParams(t, m, 2000000)
		p.YesTokenUtxo = newUtxo(t, params.YesAsset, 3, userScript)
		_, err = m.BuildCancellation(p)
		require.ErrorIs(t, err, market.ErrInsufficientTokens)

		p = cancellationParams(t, m, 2000000)
		p.NoTokenUtxo = newUtxo(t, params.NoAsset, 5, userScript)
		p.TokenChangeScript = nil
		_, err = m.BuildCancellation(p)
		require.ErrorIs(t, err, txutils.ErrMissingChangeDestination)

		p = cancellationParams(t, m, 2000000)
		p.PairsBurned = 0
		_, err = m.BuildCancellation(p)
		require.ErrorIs(t, err, market.ErrZeroPairs)
	})
}

func redemptionParams(
	t *testing.T, m *market.CompiledMarket, state market.MarketState, side market.Side,
	locked uint64,
) market.RedemptionParams {
	return market.RedemptionParams{
		CovenantCollateralUtxo: covenantUtxo(t, m, lbtc, locked, state),
		TokenUtxo:              newUtxo(t, params.TokenAsset(side), 6, userScript),
		Side:                   side,
		TokensBurned:           5,
		PayoutScript:           userScript,
		TokenChangeScript:      changeScript,
		Fee:                    fee(t, feeAmount),
	}
}

func TestBuildExpiryRedemption(t *testing.T) {
	m := compileMarket(t)

	tx, err := m.BuildExpiryRedemption(
		redemptionParams(t, m, market.StateUnresolved, market.SideNo, 2000000),
	)
	require.NoError(t, err)
	require.Equal(t, market.PathExpiryRedemption, tx.Path.Kind)
	// collateral, burn, payout, fee, token change
	require.Len(t, tx.Pset.Outputs, 5)
	require.Equal(t, uint64(1500000), tx.Pset.Outputs[0].Value)
	require.Empty(t, tx.Pset.Outputs[1].Script)
	require.Equal(t, uint64(500000), tx.Pset.Outputs[2].Value)
	require.Equal(t, uint64(1), tx.Pset.Outputs[4].Value)

	utx, err := tx.Pset.UnsignedTx()
	require.NoError(t, err)
	require.Equal(t, expiryTime, utx.Locktime)
	require.Equal(t, uint32(0xfffffffe), utx.Inputs[0].Sequence)
	finalize(t, m, tx)

	// exact payout leaves nothing in the covenant
	tx, err = m.BuildExpiryRedemption(
		redemptionParams(t, m, market.StateUnresolved, market.SideYes, 500000),
	)
	require.NoError(t, err)
	require.Len(t, tx.Pset.Outputs, 4)
	require.Empty(t, tx.Pset.Outputs[0].Script)

	_, err = m.BuildExpiryRedemption(
		redemptionParams(t, m, market.StateResolvedYes, market.SideYes, 2000000),
	)
	require.ErrorIs(t, err, txutils.ErrScriptMismatch)
}

func TestBuildPostResolutionRedemption(t *testing.T) {
	m := compileMarket(t)
	resolvedYes, err := m.ScriptPubKey(market.StateResolvedYes)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		tx, err := m.BuildPostResolutionRedemption(
			market.StateResolvedYes,
			redemptionParams(t, m, market.StateResolvedYes, market.SideYes, 2000000),
		)
		require.NoError(t, err)
		require.Equal(t, resolvedYes, tx.Pset.Outputs[0].Script)
		require.Equal(t, uint64(1000000), tx.Pset.Outputs[0].Value)
		require.Equal(t, uint64(1000000), tx.Pset.Outputs[2].Value)
		finalize(t, m, tx)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, state := range []market.MarketState{
			market.StateDormant, market.StateUnresolved,
		} {
			tx, err := m.BuildPostResolutionRedemption(
				state, redemptionParams(t, m, state, market.SideYes, 2000000),
			)
			require.ErrorIs(t, err, market.ErrInvalidState)
			require.Nil(t, tx)
		}

		_, err := m.BuildPostResolutionRedemption(
			market.StateResolvedYes,
			redemptionParams(t, m, market.StateResolvedYes, market.SideNo, 2000000),
		)
		require.ErrorIs(t, err, market.ErrInvalidState)

		_, err = m.BuildPostResolutionRedemption(
			market.StateResolvedYes,
			redemptionParams(t, m, market.StateResolvedYes, market.SideYes, 999999),
		)
		require.ErrorIs(t, err, market.ErrInsufficientCollateral)
	})
}
