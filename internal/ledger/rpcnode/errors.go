// SPDX-License-Identifier: Apache-2.0

package rpcnode

import (
	"fmt"

	"github.com/elewad/chainpass/internal/ledger"
)

// Static pallet error registry for the vault chain, standing in for a
// metadata download. Only the pallets a vault transaction can realistically
// trip over are listed; anything else falls back to the raw indices, which
// the executor renders as "module error N.M".

type palletMeta struct {
	section string
	errors  []ledger.ErrorMeta
}

var palletRegistry = map[uint8]palletMeta{
	systemPalletIndex: {
		section: "system",
		errors: []ledger.ErrorMeta{
			{Name: "InvalidSpecName", Docs: []string{"The name of specification does not match between the current runtime and the new runtime."}},
			{Name: "SpecVersionNeedsToIncrease", Docs: []string{"The specification version is not allowed to decrease between the current runtime and the new runtime."}},
			{Name: "FailedToExtractRuntimeVersion", Docs: []string{"Failed to extract the runtime version from the new runtime."}},
			{Name: "NonDefaultComposite", Docs: []string{"Suicide called when the account has non-default composite data."}},
			{Name: "NonZeroRefCount", Docs: []string{"There is a non-zero reference count preventing the account from being purged."}},
			{Name: "CallFiltered", Docs: []string{"The origin filter prevent the call to be dispatched."}},
		},
	},
	5: {
		section: "balances",
		errors: []ledger.ErrorMeta{
			{Name: "VestingBalance", Docs: []string{"Vesting balance too high to send value."}},
			{Name: "LiquidityRestrictions", Docs: []string{"Account liquidity restrictions prevent withdrawal."}},
			{Name: "InsufficientBalance", Docs: []string{"Balance too low to send value."}},
			{Name: "ExistentialDeposit", Docs: []string{"Value too low to create account due to existential deposit."}},
			{Name: "Expendability", Docs: []string{"Transfer/payment would kill account."}},
			{Name: "ExistingVestingSchedule", Docs: []string{"A vesting schedule already exists for this account."}},
			{Name: "DeadAccount", Docs: []string{"Beneficiary account must pre-exist."}},
			{Name: "TooManyReserves", Docs: []string{"Number of named reserves exceed MaxReserves."}},
		},
	},
	contractsPalletIndex: {
		section: "contracts",
		errors: []ledger.ErrorMeta{
			{Name: "InvalidSchedule", Docs: []string{"Invalid schedule supplied, e.g. with zero weight of a basic operation."}},
			{Name: "InvalidCallFlags", Docs: []string{"Invalid combination of flags supplied to seal_call or seal_delegate_call."}},
			{Name: "OutOfGas", Docs: []string{"The executed contract exhausted its gas limit."}},
			{Name: "OutputBufferTooSmall", Docs: []string{"The output buffer supplied to a contract API call was too small."}},
			{Name: "TransferFailed", Docs: []string{"Performing the requested transfer failed."}},
			{Name: "MaxCallDepthReached", Docs: []string{"Performing a call was denied because the calling depth reached the limit of what is allowed."}},
			{Name: "ContractNotFound", Docs: []string{"No contract was found at the specified address."}},
			{Name: "CodeTooLarge", Docs: []string{"The code supplied to instantiate_with_code exceeds the limit specified in the current schedule."}},
			{Name: "CodeNotFound", Docs: []string{"No code could be found at the supplied code hash."}},
			{Name: "OutOfBounds", Docs: []string{"A buffer outside of sandbox memory was passed to a contract API function."}},
			{Name: "DecodingFailed", Docs: []string{"Input passed to a contract API function failed to decode as expected type."}},
			{Name: "ContractTrapped", Docs: []string{"Contract trapped during execution."}},
			{Name: "ValueTooLarge", Docs: []string{"The size defined in T::MaxValueSize was exceeded."}},
			{Name: "TerminatedWhileReentrant", Docs: []string{"Termination of a contract is not allowed while the contract is already on the call stack."}},
			{Name: "InputForwarded", Docs: []string{"seal_call forwarded this contract's input. It therefore no longer exists."}},
			{Name: "TooManyTopics", Docs: []string{"The amount of topics passed to seal_deposit_events exceeds the limit."}},
			{Name: "NoChainExtension", Docs: []string{"The chain does not provide a chain extension."}},
			{Name: "StorageDepositNotEnoughFunds", Docs: []string{"More storage was created than allowed by the storage deposit limit."}},
		},
	},
}

// lookupModuleError resolves a module-indexed dispatch error against the
// registry.
func lookupModuleError(mod ledger.ModuleError) (ledger.ErrorMeta, error) {
	pallet, ok := palletRegistry[mod.Index]
	if !ok {
		return ledger.ErrorMeta{}, fmt.Errorf("unknown pallet index %d", mod.Index)
	}
	if int(mod.Error) >= len(pallet.errors) {
		return ledger.ErrorMeta{}, fmt.Errorf("unknown error %d in pallet %s", mod.Error, pallet.section)
	}
	meta := pallet.errors[mod.Error]
	meta.Section = pallet.section
	return meta, nil
}
