package rollout

var RenderStatus = renderStatus
