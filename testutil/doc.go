// Package testutil holds test doubles and PostgreSQL helpers shared by the package tests.
package testutil
