/*
Package errors implements custom error interfaces for cellkit.

The idea is to reuse as many errors from this package as possible and define
custom package errors when absolutely necessary. Extensions that need their
own category of failure declare it with Register(code, description) in the
package that owns the failure, for example x/multisig or x/deployment.

Reuse errors by wrapping them with Wrap and Wrapf.
To test the category of an error use Errxxx.Is(err). This works for wrapped
errors, field errors and errors collected together with Append.

There is also support for stacktraces. Please ensure you create the custom
error using errors.Wrap(err, "...") at the point of
creation to ensure we attach a stacktrace. If you wrap multiple times, we
only record the first wrap with the stacktrace.

Once you have an error, you can use `fmt.Printf/Sprintf` to get more context
	%s is just the error message
	%+v is the full stack trace
*/
package errors
