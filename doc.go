/*
Package remittance defines the primitives shared by all packages of the
escrow: storage interfaces, addresses and conditions, time handling, the
model header and genesis options.

Extensions live under x/. The escrow itself is implemented by
x/remittance, value is held and moved by x/cash.

Request scoped data is passed through context.Context. For every value T
that we support in the context there exist two functions:

  WithXYZ(Context, T) Context
  GetXYZ(Context) T
*/
package remittance
