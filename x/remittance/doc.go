/*
Package remittance implements a two party conditional escrow.

A depositor locks value against a commitment, the hash of one or two
secrets. Whoever reveals the secrets may claim the value. A commitment made
of a single secret is bound to a recipient and only the recipient can claim
it. When the deposit expires without being claimed, the depositor may take
the value back.

A fee, expressed in basis points, is taken from every deposit and accrues
in a fee pool that the owner can sweep. The owner may also pause the
escrow, which stops new deposits but never blocks withdraw or refund.

Value is held by the cash extension. Locked value is moved to an account
derived from the commitment (EscrowAddress) and fees to FeePoolAddress.
*/
package remittance
