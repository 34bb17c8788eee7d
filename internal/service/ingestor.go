package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/devika/graphchat/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk ingestion.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BulkIngestor loads large entity, relationship, and document datasets into
// the graph and vector stores using worker pools. Relationship ingestion must
// run after entity ingestion since relationships to missing entities are
// rejected.
type BulkIngestor struct {
	graph    GraphStore
	vector   VectorStore
	embedder Embedder
	workers  int
}

// NewBulkIngestor creates a BulkIngestor with the provided concurrency.
func NewBulkIngestor(graph GraphStore, vector VectorStore, embedder Embedder, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{
		graph:    graph,
		vector:   vector,
		embedder: embedder,
		workers:  workers,
	}
}

// IngestEntities upserts the provided entities concurrently. Inputs are
// normalized before persistence.
func (bi *BulkIngestor) IngestEntities(ctx context.Context, entities []domain.EntityInput) error {
	return bi.run(ctx, len(entities), func(idx int) error {
		input, err := normalizeEntity(entities[idx])
		if err != nil {
			return fmt.Errorf("entity %d: %w", idx, err)
		}
		return bi.graph.UpsertEntity(ctx, input)
	})
}

// IngestRelationships upserts the provided relationships concurrently.
func (bi *BulkIngestor) IngestRelationships(ctx context.Context, relationships []domain.RelationshipInput) error {
	return bi.run(ctx, len(relationships), func(idx int) error {
		input, err := normalizeRelationship(relationships[idx])
		if err != nil {
			return fmt.Errorf("relationship %d: %w", idx, err)
		}
		return bi.graph.UpsertRelationship(ctx, input)
	})
}

// IngestChunks embeds and stores document chunks concurrently.
func (bi *BulkIngestor) IngestChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	return bi.run(ctx, len(chunks), func(idx int) error {
		chunk := chunks[idx]
		if chunk.ID == "" || chunk.Text == "" {
			return fmt.Errorf("chunk %d: id and text are required", idx)
		}
		embedding, err := bi.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", chunk.ID, err)
		}
		return bi.vector.Insert(ctx, chunk, embedding)
	})
}

func (bi *BulkIngestor) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bi.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	var taskErr TaskError
	for err := range errCh {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
