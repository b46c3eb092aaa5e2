/*
Package cash defines a simple single denomination value ledger.

Every account holds a wallet with a balance. There is no logic in the
value itself, except that the balance of any wallet may not go below zero
and may not overflow. Thus, this implementation is referred to as cash.
Simple and safe.

All transfers are performed on the store passed by the caller, so a
transfer is committed or discarded together with the rest of the caller's
transaction.
*/
package cash
