/*
Package gconf implements a configuration store intended to be used as a
per-extension, in-database configuration singleton.

Each extension stores a single configuration object under the "_c:<pkg>" key.
The object is validated before every write, so a stored configuration is
always valid. Configuration can be initialized from the genesis file, where it
is declared under the "conf" section keyed by the extension name:

  {"conf": {"remittance": {...}}}
*/
package gconf
