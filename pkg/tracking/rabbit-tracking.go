package tracking

import (
	"github.com/matst80/jobboard/pkg/messaging"
	"github.com/matst80/jobboard/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitTracking struct {
	context    string
	prefix     string
	connection *amqp.Connection
}

func NewRabbitTracking(url, context string) (*RabbitTracking, error) {
	ret := RabbitTracking{
		context: context,
		prefix:  messaging.DefaultPrefix,
	}
	err := ret.connect(url)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (t *RabbitTracking) connect(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	t.connection = conn
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	if err := messaging.DefineTopic(ch, t.prefix, messaging.SearchTracked); err != nil {
		return err
	}
	return messaging.DefineTopic(ch, t.prefix, messaging.BookmarkToggled)
}

func (t *RabbitTracking) Close() error {
	return t.connection.Close()
}

func (t *RabbitTracking) TrackSearch(sessionId string, params types.FetchParams, result types.Pagination) error {
	return messaging.SendChange(t.connection, t.prefix, messaging.SearchTracked, NewSearchEvent(sessionId, t.context, params, result))
}

func (t *RabbitTracking) TrackBookmark(sessionId string, jobId string, saved bool) error {
	return messaging.SendChange(t.connection, t.prefix, messaging.BookmarkToggled, NewBookmarkEvent(sessionId, t.context, jobId, saved))
}
