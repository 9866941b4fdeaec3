package events

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes succsessfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			msg := []byte("msg1")
			err := kp.Write(context.TODO(), "topic1", bytes.NewReader(msg))
			Expect(err).To(BeNil())
			Eventually(w.Len).Should(Equal(1))
			Expect(w.Get(0).Context.GetType()).To(Equal("topic1"))

			msg = []byte("msg2")
			err = kp.Write(context.TODO(), "topic2", bytes.NewReader(msg))
			Expect(err).To(BeNil())

			Eventually(w.Len).Should(Equal(2))
			Expect(kp.Close()).To(Succeed())
		})

		It("keeps the order of the events", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			for _, kind := range []string{JobSubmittedKind, JobFinishedKind, JobFailedKind} {
				Expect(kp.Write(context.TODO(), kind, bytes.NewReader([]byte("{}")))).To(Succeed())
			}

			Eventually(w.Len).Should(Equal(3))
			Expect(w.Get(0).Type()).To(Equal(JobSubmittedKind))
			Expect(w.Get(1).Type()).To(Equal(JobFinishedKind))
			Expect(w.Get(2).Type()).To(Equal(JobFailedKind))
			Expect(kp.Close()).To(Succeed())
		})
	})

	Context("publish", func() {
		It("encodes the job event", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("jobs"))

			err := kp.Publish(context.TODO(), JobFinishedKind, "job-1", JobEvent{JobID: "job-1", Digits: 2, State: "finished", Result: "3.14"})
			Expect(err).To(BeNil())

			Eventually(w.Len).Should(Equal(1))
			e := w.Get(0)
			Expect(e.Type()).To(Equal(JobFinishedKind))
			Expect(e.Subject()).To(Equal("job-1"))
			Expect(e.Source()).To(Equal(eventSource))
			Expect(w.Topic(0)).To(Equal("jobs"))

			var data JobEvent
			Expect(json.Unmarshal(e.Data(), &data)).To(Succeed())
			Expect(data.Result).To(Equal("3.14"))
			Expect(kp.Close()).To(Succeed())
		})

		It("rejects events once the buffer is full", func() {
			w := newBlockingWriter()
			kp := NewEventProducer(w, WithBufferSize(1))

			// the first event is taken by the writer, the second one fills the buffer
			Expect(kp.Publish(context.TODO(), JobSubmittedKind, "a", JobEvent{})).To(Succeed())
			Eventually(w.started).Should(Receive())
			Expect(kp.Publish(context.TODO(), JobSubmittedKind, "b", JobEvent{})).To(Succeed())
			Expect(kp.Publish(context.TODO(), JobSubmittedKind, "c", JobEvent{})).To(MatchError(ErrBufferFull))

			close(w.release)
			Expect(kp.Close()).To(Succeed())
		})
	})
})

type testwriter struct {
	lock     sync.Mutex
	Messages []cloudevents.Event
	topics   []string
}

func newTestWriter() *testwriter {
	return &testwriter{Messages: []cloudevents.Event{}}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.Messages = append(t.Messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}

func (t *testwriter) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.Messages)
}

func (t *testwriter) Get(i int) cloudevents.Event {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.Messages[i]
}

func (t *testwriter) Topic(i int) string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.topics[i]
}

type blockingWriter struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingWriter() *blockingWriter {
	return &blockingWriter{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (b *blockingWriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	b.started <- struct{}{}
	<-b.release
	return nil
}

func (b *blockingWriter) Close(_ context.Context) error {
	return nil
}
