/*
Package session orchestrates document persistence.

A Manager serializes access to each document id: calls for the same id run one
at a time within the process and, when a DistributedLocker is configured,
across replicas sharing the same store.
*/
package session
