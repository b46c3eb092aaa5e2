/*
Package errors implements the error handling used across the remittance
packages.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. x/remittance is a good
package to take a look at in terms of declaring extension specific errors.

If you want to register a custom error - use Register(code, description).
For reusing errors - use Errxxx.New and Errxxx.Newf.
Code allows to distinguish types of errors on the client side and act
accordingly.

There is also support for stacktraces. Please ensure you create the custom
error using ErrXyz.New("...") or errors.Wrap(err, "...") at the point of
creation to ensure we attach a stacktrace. If you wrap multiple times, we only
record the first wrap with the stacktrace.

Once you have an error, you can use `fmt.Printf/Sprintf` to get more context
for the error
	%s is just the error message
	%+v is the error message followed by the full stack trace
*/
package errors
